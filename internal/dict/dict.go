// Package dict loads term dictionaries. The native format is the ami-style
// XML dictionary (a flat list of entry elements with a term attribute); plain
// text files with one term per line are accepted as well.
package dict

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one dictionary term with an optional label (entity type).
type Entry struct {
	Term  string
	Label string
}

// Dictionary is a named list of terms.
type Dictionary struct {
	Title   string
	Entries []Entry
}

// Terms returns the entry terms in file order.
func (d *Dictionary) Terms() []string {
	terms := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		terms = append(terms, e.Term)
	}
	return terms
}

type xmlDictionary struct {
	Title   string     `xml:"title,attr"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Term string `xml:"term,attr"`
	Name string `xml:"name,attr"`
}

// Load reads a dictionary file, dispatching on extension.
func Load(path string) (*Dictionary, error) {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return loadXML(path)
	}
	return loadPlain(path)
}

func loadXML(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	var xd xmlDictionary
	if err := xml.Unmarshal(raw, &xd); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
	}

	d := &Dictionary{Title: xd.Title}
	if d.Title == "" {
		d.Title = baseName(path)
	}
	for _, e := range xd.Entries {
		if strings.TrimSpace(e.Term) == "" {
			continue
		}
		label := e.Name
		if label == "" {
			label = d.Title
		}
		d.Entries = append(d.Entries, Entry{Term: e.Term, Label: label})
	}
	if len(d.Entries) == 0 {
		return nil, fmt.Errorf("dictionary %s has no entries", path)
	}
	return d, nil
}

func loadPlain(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	d := &Dictionary{Title: baseName(path)}
	for _, line := range strings.Split(string(raw), "\n") {
		term := strings.TrimSpace(line)
		if term == "" || strings.HasPrefix(term, "#") {
			continue
		}
		d.Entries = append(d.Entries, Entry{Term: term, Label: d.Title})
	}
	if len(d.Entries) == 0 {
		return nil, fmt.Errorf("dictionary %s has no entries", path)
	}
	return d, nil
}

// Resolve maps a dictionary reference from a submission to a file path: an
// existing path is used as-is, anything else is looked up under dictDir with
// an .xml suffix added when missing.
func Resolve(ref, dictDir string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty dictionary reference")
	}
	if _, err := os.Stat(ref); err == nil {
		return ref, nil
	}
	candidate := filepath.Join(dictDir, ref)
	if filepath.Ext(candidate) == "" {
		candidate += ".xml"
	}
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("dictionary %q not found: %w", ref, err)
	}
	return candidate, nil
}

// List enumerates the dictionary ids available under dir (relative paths of
// *.xml files without the extension).
func List(dir string) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		ids = append(ids, strings.TrimSuffix(rel, filepath.Ext(rel)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
