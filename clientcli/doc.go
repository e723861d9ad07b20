// Package clientcli provides a client library for the siack image gateway.
//
// It covers account registration and login, multipart upload, read, and
// paginated listing. Requests other than register and login carry the bearer
// token issued by login. Profiles in ~/.siack/config.yaml store one endpoint
// and token per server.
//
// # Basic Usage
//
// Log in, then upload a file:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	login, err := client.Login(ctx, "alice", password)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, _ = clientcli.New(&clientcli.Config{
//		Endpoint: "http://localhost:8080",
//		Token:    login.Token,
//	})
//	results, err := client.Upload(ctx, clientcli.UploadOptions{LocalPath: "./cat.png"})
//
// # Profile Configuration
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
