package dict

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/tchap/go-patricia/v2/patricia"
)

// nodePrefs mirrors one trie vertex in a preferences document. Zero counts
// and empty child maps are omitted on save.
type nodePrefs struct {
	SelectCount uint32                `json:"selectCount,omitempty"`
	Children    map[string]*nodePrefs `json:"children,omitempty"`
}

type prefsDocument struct {
	Nodes *nodePrefs `json:"nodes"`
}

// applyPrefs overwrites select counts from a preferences tree, walking it in
// parallel with the live trie. Segments present only in the prefs are stale
// and skipped; segments present only in the trie keep their counts.
func (n *node) applyPrefs(prefs *nodePrefs) {
	n.selectCount = prefs.SelectCount
	for segment, childPrefs := range prefs.Children {
		if childPrefs == nil {
			continue
		}
		if c := n.child(segment); c != nil {
			c.applyPrefs(childPrefs)
		}
	}
}

// prefs captures the subtree's select counts, omitting branches that carry
// nothing worth saving.
func (n *node) prefs() *nodePrefs {
	result := &nodePrefs{SelectCount: n.selectCount}
	if n.children == nil {
		return result
	}
	n.children.Visit(func(segment patricia.Prefix, item patricia.Item) error {
		childPrefs := item.(*node).prefs()
		if childPrefs.SelectCount != 0 || len(childPrefs.Children) > 0 {
			if result.Children == nil {
				result.Children = make(map[string]*nodePrefs)
			}
			result.Children[string(segment)] = childPrefs
		}
		return nil
	})
	return result
}

// LoadPrefs restores select counts from filename onto the live trie. The
// file may hold several concatenated documents; they are applied in order
// until the stream is drained. Every failure is a diagnostic, never an
// error: the dictionary keeps whatever state it has.
func (d *Dict) LoadPrefs(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		log.Warnf("'%s': unable to load: %v", filename, err)
		return
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	for {
		var doc prefsDocument
		if err := decoder.Decode(&doc); err != nil {
			if err != io.EOF {
				// A broken stream cannot be resynchronized; keep what
				// was applied so far.
				log.Warnf("'%s': %v", filename, err)
			}
			return
		}
		if doc.Nodes != nil {
			d.root.applyPrefs(doc.Nodes)
		}
	}
}

// SavePrefs writes the current select counts as exactly one document,
// overwriting filename. I/O failures are reported and dropped.
func (d *Dict) SavePrefs(filename string) {
	data, err := json.Marshal(prefsDocument{Nodes: d.root.prefs()})
	if err != nil {
		log.Warnf("'%s': unable to save: %v", filename, err)
		return
	}
	data = append(data, '\n')
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		log.Warnf("'%s': unable to save: %v", filename, err)
	}
}
