// Package reldoc loads link relation documents from a directory.
//
// A namespace directory holds one markdown file per rel. The rel name is
// the file's base name unless the optional YAML front matter overrides it:
//
//	---
//	name: boss
//	description: The person this employee reports to.
//	---
//	# Boss
//	...
package reldoc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ext is the file extension of rel documents.
const Ext = ".md"

// Descriptor describes one rel document.
type Descriptor struct {
	Name        string
	File        string
	Description string
	Body        []byte // markdown without front matter
}

type frontMatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Load reads every rel document in dir, sorted by rel name. Subdirectories
// and files with other extensions are ignored.
func Load(dir string) ([]Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rel directory: %w", err)
	}

	var descs []Descriptor
	for _, e := range entries {
		if e.IsDir() || !IsRelDoc(e.Name()) {
			continue
		}
		d, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return descs, nil
}

// LoadFile reads a single rel document.
func LoadFile(file string) (Descriptor, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Descriptor{}, fmt.Errorf("reading rel document: %w", err)
	}
	return Parse(file, data)
}

// Parse builds a Descriptor from the contents of file.
func Parse(file string, data []byte) (Descriptor, error) {
	d := Descriptor{
		Name: strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)),
		File: file,
		Body: data,
	}

	fm, body, ok := splitFrontMatter(data)
	if !ok {
		return d, nil
	}
	var meta frontMatter
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return Descriptor{}, fmt.Errorf("parsing front matter of %s: %w", file, err)
	}
	if meta.Name != "" {
		d.Name = meta.Name
	}
	d.Description = meta.Description
	d.Body = body
	return d, nil
}

// IsRelDoc reports whether name looks like a rel document.
func IsRelDoc(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Ext) && !strings.HasPrefix(filepath.Base(name), ".")
}

var fence = []byte("---")

func splitFrontMatter(data []byte) (fm, body []byte, ok bool) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !bytes.HasPrefix(data, fence) {
		return nil, data, false
	}
	rest := data[len(fence):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || len(bytes.TrimSpace(rest[:nl])) != 0 {
		return nil, data, false
	}
	rest = rest[nl+1:]

	for off := 0; off < len(rest); {
		end := bytes.IndexByte(rest[off:], '\n')
		line := rest[off:]
		if end >= 0 {
			line = rest[off : off+end]
		}
		if bytes.Equal(bytes.TrimRight(line, "\r "), fence) {
			if end < 0 {
				return rest[:off], nil, true
			}
			return rest[:off], rest[off+end+1:], true
		}
		if end < 0 {
			break
		}
		off += end + 1
	}
	return nil, data, false
}
