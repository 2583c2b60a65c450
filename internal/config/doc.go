// Package config provides the configuration store for the workbench.
//
// The store owns a single JSON document, config.json, inside the application
// data directory:
//
//	{
//	  "webuiPort": 3000,
//	  "inferencePort": 11434,
//	  "fileApiPort": 8001,
//	  "adminEmail": "admin@example.com",
//	  "adminPassword": "ChangeMe123!",
//	  "fileApiKey": "...",
//	  "allowedFolders": ["/home/alice/docs", "/home/alice/code"]
//	}
//
// The order of allowedFolders is significant: it decides which container
// mount index each folder receives.
//
// # Data directory
//
// The data directory defaults to <user config dir>/LocalLLMWorkbench and can
// be moved with the WORKBENCH_DATA_DIR environment variable or the
// --data-dir flag. It also holds the generated .env file, the installer log
// and downloaded artifacts.
//
// # First run and recovery
//
// A missing document is created from GetDefaultConfig with a freshly
// generated file-API key. A document that fails to parse is kept as
// config.json.bak and replaced with defaults; Load never surfaces either case
// as an error.
//
// # Usage Example
//
//	paths, err := config.ResolvePaths("")
//	if err != nil {
//	    return err
//	}
//	store := config.NewStore(paths)
//	cfg, err := store.Load()
//	if err != nil {
//	    return err
//	}
//	cfg.WebUIPort = 3100
//	if _, err := store.Save(cfg); err != nil {
//	    return err
//	}
package config
