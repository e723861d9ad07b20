package clientcli_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dakgu/siack/clientcli"
)

func ExampleClient_Login() {
	ctx := context.Background()

	anon, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080"})
	if err != nil {
		log.Fatal(err)
	}

	login, err := anon.Login(ctx, "alice", os.Getenv("SIACK_PASSWORD"))
	if err != nil {
		log.Fatal(err)
	}

	client, err := clientcli.New(&clientcli.Config{
		Endpoint: "http://localhost:8080",
		Token:    login.Token,
	})
	if err != nil {
		log.Fatal(err)
	}

	results, err := client.Upload(ctx, clientcli.UploadOptions{LocalPath: "./cat.png"})
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range results {
		fmt.Println(r.Path)
	}
}

func ExampleConfigFile_GetProfile() {
	cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
		{Name: "local", Endpoint: "http://localhost:8080"},
		{Name: "prod", Endpoint: "https://img.example.com", Default: true},
	}}

	p, err := cf.GetProfile("")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(p.Name, clientcli.ConfigFromProfile(p).Endpoint)
	// Output: prod https://img.example.com
}
