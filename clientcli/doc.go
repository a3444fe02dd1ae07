// Package clientcli provides a client library for mediagate servers.
//
// It uploads files through the authenticated multipart route, downloads
// objects (optionally a byte range, optionally through the video route), and
// calls the user and todo record routes. Profile-based configuration manages
// connections to multiple servers.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:5708",
//		Token:    "upload-secret",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./avatar.png",
//		Key:       "users/42/avatar.png",
//	})
//
// Fetch the first kilobyte of a video:
//
//	result, body, err := client.Download(ctx, clientcli.DownloadOptions{
//		Key:       "clips/intro.mp4",
//		Video:     true,
//		Range:     "bytes=0-1023",
//		LocalPath: "-",
//	})
//
// # Profile Configuration
//
//	configFile, err := clientcli.LoadConfigFile("~/.mediagate/config.yaml")
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
