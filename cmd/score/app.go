package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	service "github.com/okian/creatorscore/internal/app"
	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/types"
	"github.com/okian/creatorscore/pkg/logger"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	stdinPath  = "-"
)

var errEmptyBatch = errors.New("batch contains no creators")

type batchFile struct {
	Creators []types.BatchItem `json:"creators" yaml:"creators"`
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.Command {
	svc := service.New(service.WithLogger(logger.Nop()))

	debugFlag := &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs to stderr",
	}
	formatFlag := &cli.StringFlag{
		Name:      "format",
		Usage:     "Output format [json, yaml]",
		Value:     formatJSON,
		Validator: validateFormat,
	}
	newFileFlag := func() *cli.StringFlag {
		return &cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Input file (.json, .yaml or .yml); - reads stdin",
			Value:   stdinPath,
		}
	}

	return &cli.Command{
		Name:            "creatorscore",
		Usage:           "Score creator profile completeness and reach",
		Writer:          stdout,
		HideHelpCommand: true,
		Flags:           []cli.Flag{debugFlag, formatFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if err := logger.InitWithOptions(logger.FormatText, os.Stderr); err != nil {
				return ctx, err
			}
			level := "warn"
			if cmd.Bool(debugFlag.Name) {
				level = "debug"
			}
			return ctx, logger.SetLevelString(level)
		},
		Commands: []*cli.Command{
			{
				Name:  "compute",
				Usage: "Score one snapshot",
				Flags: []cli.Flag{newFileFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var snap model.Snapshot
					if err := readInput(stdin, cmd.String("file"), &snap); err != nil {
						return err
					}
					b := svc.Preview(ctx, snap)
					logger.Get().Debug(ctx, "snapshot scored", logger.Int("total", b.Total))
					return writeOutput(cmd.Root().Writer, cmd.String(formatFlag.Name), b)
				},
			},
			{
				Name:  "batch",
				Usage: "Score many creators and print them in discovery order",
				Flags: []cli.Flag{newFileFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var in batchFile
					if err := readInput(stdin, cmd.String("file"), &in); err != nil {
						return err
					}
					if len(in.Creators) == 0 {
						return errEmptyBatch
					}
					results, err := svc.PreviewBatch(ctx, in.Creators)
					if err != nil {
						return fmt.Errorf("score batch: %w", err)
					}
					logger.Get().Debug(ctx, "batch scored", logger.Int("creators", len(results)))
					return writeOutput(cmd.Root().Writer, cmd.String(formatFlag.Name), map[string]any{"results": results})
				},
			},
		},
	}
}

func validateFormat(s string) error {
	switch s {
	case formatJSON, formatYAML, "yml":
		return nil
	}
	return fmt.Errorf("unknown format %q", s)
}

// readInput decodes path (or stdin for "-") into v. JSON is used for .json
// files and for stdin starting with '{' or '['; everything else is YAML.
func readInput(stdin io.Reader, path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == stdinPath {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if isJSON(path, data) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("decode %s: empty input", path)
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func isJSON(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return true
	case ".yaml", ".yml":
		return false
	}
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func writeOutput(w io.Writer, format string, v any) error {
	if format == formatYAML || format == "yml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
