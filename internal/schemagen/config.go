// Package schemagen generates Go record types from Avro record schemas.
//
// The feed topics carry plain Avro records, so the generated structs are
// tagged for both hamba/avro and encoding/json and can be handed straight to
// the Avro codec:
//
//	gen, err := schemagen.New(&schemagen.Config{Package: "events"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := gen.Generate(os.Stdout, schemagen.Source{Name: "feed", Schema: raw}); err != nil {
//		log.Fatal(err)
//	}
package schemagen

import (
	"errors"
	"fmt"
	"go/token"
)

// DefaultPackage is used when Config.Package is empty.
const DefaultPackage = "events"

// Config holds the configuration for the generator.
type Config struct {
	// Package is the Go package name of the generated file.
	Package string
	// Tool names the generator in the "Code generated" header.
	Tool string
}

// Source is one Avro schema to generate types for.
type Source struct {
	// Name identifies the schema in error messages, usually a file path.
	Name string
	// Schema is the Avro schema JSON.
	Schema string
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.Package == "" {
		c.Package = DefaultPackage
	}
	if !token.IsIdentifier(c.Package) {
		return fmt.Errorf("invalid package name %q", c.Package)
	}
	if c.Tool == "" {
		c.Tool = "schemagen"
	}
	return nil
}

var errNoSources = errors.New("at least one schema is required")
