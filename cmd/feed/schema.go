package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/output"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/schemagen"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
)

type registryFlags struct {
	url      string
	username string
	password string
	timeout  time.Duration
	format   string
	verbose  bool
}

// builtinSchemas are the response schemas this service publishes, by name.
var builtinSchemas = map[string]string{
	"feed":     feed.FeedAvroSchema,
	"memorial": feed.MemorialAvroSchema,
}

func newSchemaCmd() *cobra.Command {
	flags := &registryFlags{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage Avro schemas in the Schema Registry",
		Long: `Inspect and manage the schemas behind the feed topics.

The registry URL falls back to SCHEMA_REGISTRY_URL, then http://localhost:8081.`,
	}

	cmd.PersistentFlags().StringVar(&flags.url, "registry-url", "", "Schema Registry URL")
	cmd.PersistentFlags().StringVar(&flags.username, "username", "", "Basic auth username")
	cmd.PersistentFlags().StringVar(&flags.password, "password", "", "Basic auth password")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "Request timeout")
	cmd.PersistentFlags().StringVarP(&flags.format, "output", "o", "table", "Output format: table, json, yaml")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log registry requests")

	cmd.AddCommand(
		newSchemaListCmd(flags),
		newSchemaGetCmd(flags),
		newSchemaLatestCmd(flags),
		newSchemaRegisterCmd(flags),
		newSchemaCompatCmd(flags),
		newSchemaDeleteCmd(flags),
		newSchemaGenCmd(),
	)
	return cmd
}

// withAdmin opens a registry client for one command and closes it afterwards.
func withAdmin(cmd *cobra.Command, flags *registryFlags, fn func(ctx context.Context, admin schemaregistry.Admin, p *output.Printer) error) error {
	log := zap.NewNop()
	if flags.verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	cfg, err := config.Finalize(config.Config{
		SchemaRegistry: config.SchemaRegistryConfig{
			URL:      flags.url,
			Username: flags.username,
			Password: flags.password,
			Timeout:  flags.timeout,
		},
	}, log)
	if err != nil {
		return err
	}

	admin, err := schemaregistry.New(cfg.SchemaRegistry, log)
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()
	return fn(ctx, admin, output.NewPrinter(flags.format, cmd.OutOrStdout()))
}

func newSchemaListCmd(flags *registryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdmin(cmd, flags, func(ctx context.Context, admin schemaregistry.Admin, p *output.Printer) error {
				subjects, err := admin.ListSubjects(ctx)
				if err != nil {
					return err
				}
				return p.Print(subjects, []string{"Subject"}, func() [][]string {
					rows := make([][]string, 0, len(subjects))
					for _, s := range subjects {
						rows = append(rows, []string{s})
					}
					return rows
				})
			})
		},
	}
}

func newSchemaGetCmd(flags *registryFlags) *cobra.Command {
	var id int

	cmd := &cobra.Command{
		Use:   "get <subject> <version> | get --id <id>",
		Short: "Show a schema version, or a schema by global id",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id <= 0 && len(args) != 2 {
				return fmt.Errorf("expected <subject> <version> or --id")
			}
			return withAdmin(cmd, flags, func(ctx context.Context, admin schemaregistry.Admin, p *output.Printer) error {
				if id > 0 {
					schema, err := admin.GetSchemaByID(ctx, id)
					if err != nil {
						return err
					}
					return printMetadata(p, schemaregistry.SchemaMetadata{ID: id, Schema: schema, Version: -1})
				}
				version, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[1], err)
				}
				meta, err := admin.GetSchemaVersion(ctx, args[0], version)
				if err != nil {
					return err
				}
				return printMetadata(p, meta)
			})
		},
	}

	cmd.Flags().IntVar(&id, "id", 0, "Global schema id")
	return cmd
}

func newSchemaLatestCmd(flags *registryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "latest <subject>",
		Short: "Show the latest schema registered under a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, flags, func(ctx context.Context, admin schemaregistry.Admin, p *output.Printer) error {
				meta, err := admin.GetLatestSchema(ctx, args[0])
				if err != nil {
					return err
				}
				return printMetadata(p, meta)
			})
		},
	}
}

func newSchemaRegisterCmd(flags *registryFlags) *cobra.Command {
	var file, builtin string

	cmd := &cobra.Command{
		Use:   "register <subject>",
		Short: "Register a schema under a subject",
		Long: `Register a schema read from --file, or one of the schemas the feed
service publishes with --builtin feed|memorial.

Example:
  feed schema register memorial-vectorizing-response-value --builtin feed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := loadSchema(file, builtin)
			if err != nil {
				return err
			}
			return withAdmin(cmd, flags, func(ctx context.Context, admin schemaregistry.Admin, p *output.Printer) error {
				id, err := admin.RegisterSchema(ctx, args[0], schema)
				if err != nil {
					return err
				}
				p.Success("registered %s with id %d", args[0], id)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to an .avsc file")
	cmd.Flags().StringVar(&builtin, "builtin", "", "Built-in schema: feed or memorial")
	cmd.MarkFlagsMutuallyExclusive("file", "builtin")
	cmd.MarkFlagsOneRequired("file", "builtin")
	return cmd
}

func newSchemaCompatCmd(flags *registryFlags) *cobra.Command {
	var file, builtin string

	cmd := &cobra.Command{
		Use:   "compat <subject>",
		Short: "Check a schema against the latest version of a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := loadSchema(file, builtin)
			if err != nil {
				return err
			}
			return withAdmin(cmd, flags, func(ctx context.Context, admin schemaregistry.Admin, p *output.Printer) error {
				if !admin.CheckCompatibility(ctx, args[0], schema) {
					return fmt.Errorf("schema is not compatible with %s", args[0])
				}
				p.Success("schema is compatible with %s", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to an .avsc file")
	cmd.Flags().StringVar(&builtin, "builtin", "", "Built-in schema: feed or memorial")
	cmd.MarkFlagsMutuallyExclusive("file", "builtin")
	cmd.MarkFlagsOneRequired("file", "builtin")
	return cmd
}

func newSchemaDeleteCmd(flags *registryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <subject>",
		Short: "Soft-delete a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, flags, func(ctx context.Context, admin schemaregistry.Admin, p *output.Printer) error {
				versions, err := admin.DeleteSubject(ctx, args[0])
				if err != nil {
					return err
				}
				p.Success("deleted %s (versions %v)", args[0], versions)
				return nil
			})
		},
	}
}

func newSchemaGenCmd() *cobra.Command {
	var (
		files, builtins []string
		cfg             = &schemagen.Config{Tool: "feed schema gen"}
		out             string
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go record types from Avro schemas",
		Long: `Generate Go structs tagged for Avro and JSON from record schemas.

Example:
  feed schema gen --builtin feed --builtin memorial --package events --out events/records.gen.go`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources := make([]schemagen.Source, 0, len(files)+len(builtins))
			for _, name := range builtins {
				schema, err := loadSchema("", name)
				if err != nil {
					return err
				}
				sources = append(sources, schemagen.Source{Name: name, Schema: schema})
			}
			for _, file := range files {
				schema, err := loadSchema(file, "")
				if err != nil {
					return err
				}
				sources = append(sources, schemagen.Source{Name: file, Schema: schema})
			}

			gen, err := schemagen.New(cfg)
			if err != nil {
				return err
			}
			if out == "" {
				return gen.Generate(cmd.OutOrStdout(), sources...)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := gen.Generate(f, sources...); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Path to an .avsc file (repeatable)")
	cmd.Flags().StringSliceVar(&builtins, "builtin", nil, "Built-in schema: feed or memorial (repeatable)")
	cmd.Flags().StringVar(&cfg.Package, "package", schemagen.DefaultPackage, "Go package name for generated code")
	cmd.Flags().StringVar(&out, "out", "", "Output file (stdout if empty)")
	cmd.MarkFlagsOneRequired("file", "builtin")
	return cmd
}

func loadSchema(file, builtin string) (string, error) {
	if builtin != "" {
		schema, ok := builtinSchemas[builtin]
		if !ok {
			return "", fmt.Errorf("unknown built-in schema %q (want feed or memorial)", builtin)
		}
		return schema, nil
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read schema: %w", err)
	}
	return string(raw), nil
}

func printMetadata(p *output.Printer, meta schemaregistry.SchemaMetadata) error {
	if p.Format() == output.FormatTable {
		p.Header("%s", lo.CoalesceOrEmpty(meta.Subject, "schema"))
		if err := p.Print(meta, []string{"ID", "Version"}, func() [][]string {
			return [][]string{{strconv.Itoa(meta.ID), strconv.Itoa(meta.Version)}}
		}); err != nil {
			return err
		}
		p.Text(meta.Schema)
		return nil
	}
	return p.Print(meta, nil, nil)
}
