package policy

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/nn"
)

// FormatVersion is the artifact layout written by Marshal
const FormatVersion = 1

// FilePrefix is the common prefix of artifact file names
const FilePrefix = "battle_dice_dqn_"

// FileExtension is the artifact file extension
const FileExtension = ".model"

// FileName returns the artifact file name for a collection key, e.g.
// battle_dice_dqn_A.model
func FileName(key string) string {
	return FilePrefix + strings.ToUpper(key) + FileExtension
}

// Metadata describes what an artifact was trained on
type Metadata struct {
	Collection string
	Dice       []int
	Target     int
	// RerollNorm is the budget normalizer the observations were encoded with
	RerollNorm int
	RunID      string
	Episodes   int
	Seed       int64
	TrainedAt  time.Time
}

// Artifact is a trained online network together with its metadata
type Artifact struct {
	Version  int
	Metadata Metadata
	Layers   []nn.LayerParams
}

// NewArtifact captures the parameters of network. The network is copied.
func NewArtifact(meta Metadata, network *nn.Network) *Artifact {
	meta.Dice = slices.Clone(meta.Dice)
	return &Artifact{
		Version:  FormatVersion,
		Metadata: meta,
		Layers:   network.Layers(),
	}
}

// Network rebuilds the approximator stored in the artifact
func (a *Artifact) Network() (*nn.Network, error) {
	n, err := nn.FromLayers(a.Layers)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptArtifact, "rebuilding network: %v", err)
	}
	return n, nil
}

// Collection returns the dice collection the artifact was trained on
func (a *Artifact) Collection() dice.Collection {
	return dice.Collection{Key: a.Metadata.Collection, Dice: slices.Clone(a.Metadata.Dice), Target: a.Metadata.Target}
}

// CheckCollection verifies that the artifact can play collection c: same
// dice in the same order, same target, and layer dimensions that fit the
// observation and action sizes of c
func (a *Artifact) CheckCollection(c dice.Collection) error {
	if !c.SameDice(a.Metadata.Dice) || c.Target != a.Metadata.Target {
		return errors.Wrapf(ErrCollectionMismatch, "artifact has %v aiming at %d, want %v aiming at %d",
			a.Metadata.Dice, a.Metadata.Target, c.Dice, c.Target)
	}
	if len(a.Layers) == 0 {
		return errors.Wrap(ErrCorruptArtifact, "artifact has no layers")
	}
	in := a.Layers[0].In
	out := a.Layers[len(a.Layers)-1].Out
	if in != game.ObservationSize(len(c.Dice)) || out != c.NumActions() {
		return errors.Wrapf(ErrDimensionMismatch, "network is %d -> %d, collection %s needs %d -> %d",
			in, out, c.Key, game.ObservationSize(len(c.Dice)), c.NumActions())
	}
	return nil
}

// String summarizes the artifact for logs
func (a *Artifact) String() string {
	hidden := make([]string, 0, len(a.Layers))
	for _, l := range a.Layers[:max(len(a.Layers)-1, 0)] {
		hidden = append(hidden, fmt.Sprint(l.Out))
	}
	return fmt.Sprintf("%s%s v%d [%s] run=%s episodes=%d",
		FilePrefix, a.Metadata.Collection, a.Version, strings.Join(hidden, "x"), a.Metadata.RunID, a.Metadata.Episodes)
}
