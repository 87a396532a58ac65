package qem

import (
	"bytes"
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"go.viam.com/meshkit/halfedge"
	"go.viam.com/meshkit/logging"
)

const (
	// DefaultSentinelCost is the cost given to edges whose quadric cannot be solved.
	DefaultSentinelCost = 1e10
	// DefaultDeterminantEpsilon is the smallest quadric determinant considered solvable.
	DefaultDeterminantEpsilon = 1e-10
)

// Collapse describes an edge collapse that is about to be applied.
type Collapse struct {
	Edge     halfedge.EdgeID
	Keep     halfedge.VertexID
	Remove   halfedge.VertexID
	Cost     float64
	Position r3.Vector
}

// Options configures a simplification run.
type Options struct {
	// TargetFaces is the face count at which simplification stops.
	TargetFaces int `json:"target_faces" jsonschema:"minimum=0"`
	// SentinelCost marks edges whose merged quadric is singular. Such edges are never collapsed.
	SentinelCost float64 `json:"sentinel_cost,omitempty"`
	// DeterminantEpsilon is the threshold below which a quadric counts as singular.
	DeterminantEpsilon float64 `json:"determinant_epsilon,omitempty" jsonschema:"minimum=0"`
	// SharpAngle, in radians, protects edges whose dihedral angle exceeds it. 0 disables it.
	SharpAngle float64 `json:"sharp_angle,omitempty" jsonschema:"minimum=0"`
	// Parallel accumulates the initial quadrics on multiple goroutines.
	Parallel bool `json:"parallel,omitempty"`

	Logger logging.Logger `json:"-"`
	// OnCollapse is called with the mesh still intact right before each accepted collapse.
	OnCollapse func(Collapse) `json:"-"`
}

// DefaultOptions returns options that simplify down to targetFaces.
func DefaultOptions(targetFaces int) Options {
	return Options{
		TargetFaces:        targetFaces,
		SentinelCost:       DefaultSentinelCost,
		DeterminantEpsilon: DefaultDeterminantEpsilon,
	}
}

// Validate reports the first invalid setting.
func (o *Options) Validate() error {
	if o.TargetFaces < 0 {
		return errors.Errorf("target face count must be non-negative, got %d", o.TargetFaces)
	}
	if o.SentinelCost <= 0 {
		return errors.Errorf("sentinel cost must be positive, got %v", o.SentinelCost)
	}
	if o.DeterminantEpsilon < 0 {
		return errors.Errorf("determinant epsilon must be non-negative, got %v", o.DeterminantEpsilon)
	}
	if o.SharpAngle < 0 {
		return errors.Errorf("sharp angle must be non-negative, got %v", o.SharpAngle)
	}
	return nil
}

// ReadOptionsFile reads JSON options from path on top of DefaultOptions. Environment
// variables in the file are expanded first.
func ReadOptionsFile(path string) (Options, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	opts := DefaultOptions(0)
	if err := json.NewDecoder(bytes.NewReader(buf)).Decode(&opts); err != nil {
		return Options{}, errors.Wrapf(err, "failed to decode options from %q", path)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, errors.Wrapf(err, "invalid options in %q", path)
	}
	return opts, nil
}

// OptionsSchema returns the JSON schema of the options file.
func OptionsSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Options{})
}
