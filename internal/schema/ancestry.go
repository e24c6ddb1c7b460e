package schema

import "fmt"

// Migration pairs a prior schema shape with the function that reshapes data
// it accepts into the current shape. Migrate must be pure and total over any
// data Prior resolves.
type Migration struct {
	Migrate func(data any) any
	Prior   *Node
}

// Ancestry returns a schema that tries current first and, when current
// rejects the raw data, walks the given migrations in order: the first prior
// schema that accepts the data has its migration applied to the
// prior-resolved value, and the result is resolved through current again.
// This lets a document evolve its on-disk shape while legacy documents keep
// loading transparently.
func Ancestry(current *Node, priors ...Migration) *Node {
	return &Node{Kind: KindAncestry, Inner: current, Priors: priors}
}

func (n *Node) resolveAncestry(scope string, raw any) (any, error) {
	v, err := n.Inner.resolve(scope, raw)
	if err == nil {
		return v, nil
	}

	for _, m := range n.Priors {
		prior, perr := m.Prior.resolve(scope, raw)
		if perr != nil {
			continue
		}
		migrated, merr := n.Inner.resolve(scope, m.Migrate(prior))
		if merr != nil {
			// The migration produced data the current schema rejects.
			// That is a schema-authoring bug, not a data error: fail
			// loudly rather than fall back to the original error.
			panic(fmt.Sprintf("schema: migrated data rejected by current schema: %v", merr))
		}
		return migrated, nil
	}

	// No prior accepted the data either; surface the current schema's error.
	return nil, err
}
