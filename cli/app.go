// Package cli contains the meshkit command line tool.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/meshkit/halfedge"
	"go.viam.com/meshkit/logging"
	"go.viam.com/meshkit/meshio"
	"go.viam.com/meshkit/qem"
	"go.viam.com/meshkit/utils"
)

const (
	// Global flags.
	flagDebug   = "debug"
	flagLogFile = "log-file"

	// Simplify flags.
	flagTarget     = "target"
	flagRatio      = "ratio"
	flagConfig     = "config"
	flagParallel   = "parallel"
	flagSharpAngle = "sharp-angle"
	flagValidate   = "validate"
	flagAttributes = "attributes"

	metadataLogger = "logger"
	metadataCloser = "closer"
)

var knownAttributes = []string{"normals", "colors", "uvs"}

// NewApp returns the meshkit command line application writing to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	attributesFlag := &cli.StringSliceFlag{
		Name:  flagAttributes,
		Usage: "per-vertex attributes to carry through: " + strings.Join(knownAttributes, ", "),
	}
	return &cli.App{
		Name:            "meshkit",
		Usage:           "inspect and simplify triangle meshes",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Metadata:        map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.PathFlag{
				Name:  flagLogFile,
				Usage: "also write JSON logs to `FILE`",
			},
		},
		Before: setupLogging,
		After:  closeLogging,
		Commands: []*cli.Command{
			{
				Name:      "simplify",
				Usage:     "reduce the face count of a mesh by quadric edge collapse",
				ArgsUsage: "<input> <output>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagTarget,
						Usage: "stop once the mesh has at most this many faces",
					},
					&cli.Float64Flag{
						Name:  flagRatio,
						Usage: "target face count as a fraction of the input face count",
					},
					&cli.PathFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load simplification options from JSON `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagParallel,
						Usage: "compute the initial quadrics on multiple goroutines",
					},
					&cli.Float64Flag{
						Name:  flagSharpAngle,
						Usage: "never collapse edges whose dihedral angle exceeds this many degrees",
					},
					&cli.BoolFlag{
						Name:  flagValidate,
						Usage: "check mesh invariants after simplifying",
					},
					attributesFlag,
				},
				Action: SimplifyAction,
			},
			{
				Name:      "stats",
				Usage:     "print element counts and edge length statistics",
				ArgsUsage: "<input>",
				Flags:     []cli.Flag{attributesFlag},
				Action:    StatsAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the simplification options file",
				Action: SchemaAction,
			},
		},
	}
}

func setupLogging(c *cli.Context) error {
	level := logging.INFO
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	var logger logging.Logger
	if path := c.Path(flagLogFile); path != "" {
		fileLogger, closer := logging.NewFileLogger("meshkit", path, level)
		logger = fileLogger
		c.App.Metadata[metadataCloser] = closer
	} else {
		logger = logging.NewLogger("meshkit")
		logger.SetLevel(level)
	}
	c.App.Metadata[metadataLogger] = logger
	return nil
}

func closeLogging(c *cli.Context) error {
	if logger, err := utils.AssertType[logging.Logger](c.App.Metadata[metadataLogger]); err == nil {
		goutils.UncheckedError(logger.Sync())
	}
	if closer, ok := c.App.Metadata[metadataCloser].(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func loggerFrom(c *cli.Context) logging.Logger {
	logger, err := utils.AssertType[logging.Logger](c.App.Metadata[metadataLogger])
	if err != nil {
		return logging.Global()
	}
	return logger
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func parseAttributes(names []string) (halfedge.Attributes, error) {
	var attrs halfedge.Attributes
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if !lo.Contains(knownAttributes, part) {
				return attrs, errors.Errorf("unknown attribute %q, expected one of %s", part, strings.Join(knownAttributes, ", "))
			}
			switch part {
			case "normals":
				attrs.Normals = true
			case "colors":
				attrs.Colors = true
			case "uvs":
				attrs.UVs = true
			}
		}
	}
	return attrs, nil
}

// simplifyOptions assembles options from the config file and flags. Flags win over the file.
func simplifyOptions(c *cli.Context, inputFaces int) (qem.Options, error) {
	if !c.IsSet(flagTarget) && !c.IsSet(flagRatio) && !c.IsSet(flagConfig) {
		return qem.Options{}, errors.Errorf("one of --%s, --%s or --%s is required", flagTarget, flagRatio, flagConfig)
	}
	if c.IsSet(flagTarget) && c.IsSet(flagRatio) {
		return qem.Options{}, errors.Errorf("--%s and --%s are mutually exclusive", flagTarget, flagRatio)
	}

	opts := qem.DefaultOptions(0)
	if path := c.Path(flagConfig); path != "" {
		var err error
		if opts, err = qem.ReadOptionsFile(path); err != nil {
			return qem.Options{}, err
		}
	}
	if c.IsSet(flagTarget) {
		opts.TargetFaces = c.Int(flagTarget)
	}
	if c.IsSet(flagRatio) {
		ratio := c.Float64(flagRatio)
		if ratio < 0 || ratio > 1 {
			return qem.Options{}, errors.Errorf("--%s must be within [0, 1], got %v", flagRatio, ratio)
		}
		opts.TargetFaces = utils.ScaleByPct(inputFaces, ratio)
	}
	if c.IsSet(flagParallel) {
		opts.Parallel = c.Bool(flagParallel)
	}
	if c.IsSet(flagSharpAngle) {
		opts.SharpAngle = utils.DegToRad(c.Float64(flagSharpAngle))
	}
	return opts, opts.Validate()
}

// SimplifyAction reads a mesh, simplifies it and writes the result.
func SimplifyAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("simplify needs an input and an output path")
	}
	in, out := c.Args().Get(0), c.Args().Get(1)
	if _, err := meshio.FormatFromPath(out); err != nil {
		return err
	}
	attrs, err := parseAttributes(c.StringSlice(flagAttributes))
	if err != nil {
		return err
	}
	logger := loggerFrom(c)

	m := qem.NewMesh(halfedge.WithAttributes(attrs), halfedge.WithLogger(logger))
	if err := meshio.ReadFile(in, m); err != nil {
		return err
	}
	before := Measure(m)

	opts, err := simplifyOptions(c, m.NumFaces())
	if err != nil {
		return err
	}
	opts.Logger = logger.Sublogger("qem")

	start := time.Now()
	res, err := qem.Simplify(c.Context, m, opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	if c.Bool(flagValidate) {
		if err := m.Validate(); err != nil {
			return errors.Wrap(err, "simplified mesh is invalid")
		}
	}
	if err := meshio.WriteFile(out, m); err != nil {
		return err
	}

	stateColor := color.New(color.FgGreen)
	if res.State != qem.Done {
		stateColor = color.New(color.FgYellow)
	}
	printf(c.App.Writer, "%s after %d collapses (%d rejected, %d stale) in %v",
		stateColor.Sprint(res.State), res.Collapses, res.Rejected, res.Stale, elapsed.Round(time.Millisecond))
	printf(c.App.Writer, "%s (%s) -> %s (%s)", in, fileSize(in), out, fileSize(out))
	printf(c.App.Writer, "%s", RenderReport(Column{Name: in, Report: before}, Column{Name: out, Report: Measure(m)}))
	return nil
}

// StatsAction prints a Report for a mesh file.
func StatsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("stats needs an input path")
	}
	attrs, err := parseAttributes(c.StringSlice(flagAttributes))
	if err != nil {
		return err
	}
	in := c.Args().First()
	m := halfedge.NewMesh[struct{}, struct{}, struct{}](halfedge.WithAttributes(attrs), halfedge.WithLogger(loggerFrom(c)))
	if err := meshio.ReadFile(in, m); err != nil {
		return err
	}
	printf(c.App.Writer, "%s", RenderReport(Column{Name: in, Report: Measure(m)}))
	return nil
}

// SchemaAction prints the JSON schema of the options file.
func SchemaAction(c *cli.Context) error {
	out, err := json.MarshalIndent(qem.OptionsSchema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", out)
	return nil
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return units.HumanSize(float64(info.Size()))
}
