// Package config loads kobgen project configuration.
//
// The configuration lives in kobgen.json or kobgen.yaml at the project root.
// Every field is optional:
//
//	group: com.example.site
//	target: all                 # frontend, backend or all
//	sources:
//	  - src/jsMain/kotlin
//	  - src/jvmMain/kotlin
//	packages:
//	  pages: .pages             # relative to group
//	  api: .api
//	  generated: .generated
//	output:
//	  dir: build/generated/kobweb
//	  file: KobwebRegistrations.kt
//	artifacts:
//	  locations:
//	    - build/libs/widgets.jar
//	  s3Prefixes:
//	    - s3://kobweb-artifacts/libs/
//	  s3:
//	    region: eu-west-1
//
// KOBGEN_* environment variables, read from the process or a .env file next to
// the config, override the file. Command-line flags override both.
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Pages:", cfg.PagesPackage())
package config
