package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hokaccha/go-prettyjson"
)

var outputFormatsCompletion = []string{"json", "text"}

func checkOutputFormat(format string) (string, error) {
	format = strings.ToLower(format)
	switch format {
	case "", "text":
		return "text", nil
	case "json":
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func formatJSON(value any, colored bool) ([]byte, error) {
	if !colored {
		return json.MarshalIndent(value, "", "  ")
	}
	return prettyjson.Marshal(value)
}
