package exdyn

import "encoding/hex"

type (
	// Hash is a 32-byte chain hash.
	Hash [32]byte

	// Head is the chain head snapshot handed to an extension at launch.
	Head struct {
		Number          uint64
		Hash            Hash
		Difficulty      uint64
		TotalDifficulty uint64
		Timestamp       uint64
	}

	// ChainSpec is the read-only chain-specification capability an
	// extension may query. Concrete host chain types implement it; across
	// the boundary only this interface travels.
	ChainSpec interface {
		ChainID() uint64
		ChainName() string
		GenesisHash() Hash
	}

	// NodeConfig is the node's configuration as visible to an extension.
	// The chain parameter is the host's concrete chain-spec type;
	// NodeConfig[ChainSpec] is its erased form.
	NodeConfig[C ChainSpec] struct {
		Chain        C
		Datadir      string
		ExtensionDir string
		Debug        bool
	}

	// Context captures what an extension has access to at startup. It is
	// created once per launch and moved into the single invocation that
	// uses it.
	Context[C ChainSpec] struct {
		// Head of the chain at launch.
		Head Head
		// Config of the node.
		Config NodeConfig[C]
		// Loaded on-disk configuration.
		Loaded *Config
		// Events is the send endpoint to the rest of the node.
		//
		// The extension should emit a FinishedHeight whenever a processed
		// block is safe to prune.
		Events *EventSender
	}

	// ContextDyn mirrors Context without the chain type parameter, for the
	// boundary invocation where no generic information can cross. It is a
	// terminal representation: there is no conversion back.
	ContextDyn struct {
		Head   Head
		Config NodeConfig[ChainSpec]
		Loaded *Config
		Events *EventSender
	}
)

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IntoDyn erases the node config's chain parameter.
func (c NodeConfig[C]) IntoDyn() NodeConfig[ChainSpec] {
	return NodeConfig[ChainSpec]{
		Chain:        c.Chain,
		Datadir:      c.Datadir,
		ExtensionDir: c.ExtensionDir,
		Debug:        c.Debug,
	}
}

// IntoDyn projects a generic context into its erased mirror. The conversion
// is lossless: every field keeps its semantic value and the event endpoint
// keeps its identity.
func IntoDyn[C ChainSpec](ctx Context[C]) *ContextDyn {
	return &ContextDyn{
		Head:   ctx.Head,
		Config: ctx.Config.IntoDyn(),
		Loaded: ctx.Loaded,
		Events: ctx.Events,
	}
}
