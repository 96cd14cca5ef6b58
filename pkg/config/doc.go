// Package config loads schemagen settings.
//
// Values are resolved in this order, later sources winning:
//
//   - built-in defaults (Default)
//   - a YAML file: --config, or schemagen.yaml in the working directory or
//     $HOME/.schemagen
//   - environment variables prefixed SCHEMAGEN_, after a .env file in the
//     working directory has been loaded into the environment
//   - command-line flags bound with BindFlag
//
// Keys are kebab-case and nested by section, so server.jwt-secret is read
// from SCHEMAGEN_SERVER_JWT_SECRET. The loaded Config is checked with
// validator struct tags and failures are reported as ValidationErrors.
package config
