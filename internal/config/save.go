package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/lcdterm/internal/log"
)

// SaveBrightness sets clock.brightness in the config file, creating the file
// or the section if needed. Comments and formatting elsewhere are preserved
// by editing the yaml.Node tree.
func SaveBrightness(configPath string, level int) error {
	if level < 1 || level > 255 {
		return fmt.Errorf("clock.brightness must be 1-255, got %d", level)
	}
	return saveScalar(configPath, []string{"clock", "brightness"}, strconv.Itoa(level), "!!int")
}

// SaveStation sets weather.station in the config file.
func SaveStation(configPath, station string) error {
	return saveScalar(configPath, []string{"weather", "station"}, station, "!!str")
}

func saveScalar(configPath string, keys []string, value, tag string) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode}
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("config %s: top level is not a mapping", configPath)
	}

	node := doc.Content[0]
	for i, key := range keys {
		last := i == len(keys)-1
		child := lookup(node, key)
		switch {
		case child == nil && last:
			child = &yaml.Node{Kind: yaml.ScalarNode}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, child)
		case child == nil:
			child = &yaml.Node{Kind: yaml.MappingNode}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, child)
		case !last && child.Kind != yaml.MappingNode:
			// an empty section ("clock:") decodes as a null scalar
			if child.Kind == yaml.ScalarNode && child.Tag == "!!null" {
				child.Kind, child.Tag, child.Value = yaml.MappingNode, "", ""
			} else {
				return fmt.Errorf("config %s: %s is not a mapping", configPath, key)
			}
		}
		node = child
	}
	node.Kind = yaml.ScalarNode
	node.Tag = tag
	node.Value = value
	node.Style = 0

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if err := writeAtomic(configPath, buf.Bytes()); err != nil {
		return err
	}
	log.Info(log.CatConfig, "saved setting", "path", configPath, "key", keys, "value", value)
	return nil
}

// lookup returns the value node for key in a mapping node.
func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// writeAtomic writes data to a temp file next to path and renames it over
// path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".lcdterm.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
