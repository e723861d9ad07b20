package siack_test

import (
	"testing"

	"github.com/dakgu/siack"
	"github.com/stretchr/testify/assert"
)

func TestBackendType_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		backend siack.BackendType
		valid   bool
	}{
		{name: "local is valid", backend: siack.BackendLocal, valid: true},
		{name: "remote is valid", backend: siack.BackendRemote, valid: true},
		{name: "empty is invalid", backend: "", valid: false},
		{name: "uppercase is invalid", backend: "LOCAL", valid: false},
		{name: "unknown is invalid", backend: "s3", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.backend.IsValid())
		})
	}
}

func TestParseBackendType(t *testing.T) {
	b, err := siack.ParseBackendType("remote")
	assert.NoError(t, err)
	assert.Equal(t, siack.BackendRemote, b)

	_, err = siack.ParseBackendType("ftp")
	assert.ErrorIs(t, err, siack.ErrConfiguration)
	assert.Contains(t, err.Error(), "valid backends: local, remote")
}

func TestPrincipal_HasAuthority(t *testing.T) {
	p := siack.Principal{Subject: "alice", Authorities: []string{"ROLE_USER"}}

	assert.True(t, p.HasAuthority("ROLE_USER"))
	assert.False(t, p.HasAuthority("ROLE_ADMIN"))
	assert.False(t, siack.Principal{}.HasAuthority("ROLE_USER"))
}

func TestIsValidTableName(t *testing.T) {
	tests := []struct {
		name  string
		table string
		want  bool
	}{
		{name: "simple", table: "files", want: true},
		{name: "underscore prefix", table: "_users", want: true},
		{name: "with digits", table: "files_v2", want: true},
		{name: "empty", table: "", want: false},
		{name: "uppercase", table: "Files", want: false},
		{name: "leading digit", table: "2files", want: false},
		{name: "dash", table: "my-files", want: false},
		{name: "injection", table: "files; DROP TABLE users", want: false},
		{name: "too long", table: "a123456789012345678901234567890123456789012345678901234567890123", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, siack.IsValidTableName(tt.table))
		})
	}
}

func TestTables_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tables  siack.Tables
		wantErr string
	}{
		{name: "valid", tables: siack.Tables{Files: "files", Users: "users"}},
		{name: "missing files", tables: siack.Tables{Users: "users"}, wantErr: "files table name cannot be empty"},
		{name: "missing users", tables: siack.Tables{Files: "files"}, wantErr: "users table name cannot be empty"},
		{name: "invalid users", tables: siack.Tables{Files: "files", Users: "Users"}, wantErr: "invalid users table name"},
		{name: "same name", tables: siack.Tables{Files: "t", Users: "t"}, wantErr: "must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tables.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
