// Package vocab loads the vocabulary pool from JSON seed files or from
// Excel/CSV imports
package vocab

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/example/vocabquiz/pkg/models"
)

// Load reads and validates a JSON vocabulary file. Malformed records are
// filtered out and logged; a pool that yields zero valid records is an error.
func Load(path string) ([]models.VocabItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %v", err)
	}
	return Parse(data)
}

// Parse validates raw JSON vocabulary data
func Parse(data []byte) ([]models.VocabItem, error) {
	var raw []models.VocabItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid vocabulary data, expected an array: %v", err)
	}

	validated := make([]models.VocabItem, 0, len(raw))
	for i, item := range raw {
		if !ValidItem(item) {
			log.Printf("skipping malformed vocabulary record %d (id %q)", i, item.ID)
			continue
		}
		validated = append(validated, item)
	}

	if len(validated) == 0 {
		return nil, fmt.Errorf("no valid vocabulary items found")
	}
	return validated, nil
}

// ValidItem reports whether a record carries every required field and a
// known topic
func ValidItem(item models.VocabItem) bool {
	return item.ID != "" &&
		models.ValidTopic(item.Topic) &&
		item.Level != "" &&
		item.Prompt != "" &&
		item.Answer != "" &&
		item.Example != ""
}

// ByTopic filters items down to a single topic
func ByTopic(items []models.VocabItem, topic models.Topic) []models.VocabItem {
	filtered := make([]models.VocabItem, 0)
	for _, item := range items {
		if item.Topic == topic {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
