package httpapi

import (
	"context"
	"fmt"
	"strings"
)

// ollamaTags is the response of Ollama's GET /api/tags.
type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// CheckOllamaModel confirms the server is up and model has been pulled.
// A model named without a tag matches its ":latest" variant.
func CheckOllamaModel(ctx context.Context, c *Client, model string) error {
	var tags ollamaTags
	if err := c.Get(ctx, "/api/tags", &tags); err != nil {
		return err
	}
	for _, m := range tags.Models {
		if m.Name == model || (!strings.Contains(model, ":") && m.Name == model+":latest") {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: model %q is not pulled, run 'ollama pull %s'",
		c.unavailable, c.provider, model, model)
}
