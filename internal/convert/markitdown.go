// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/paper-digest/internal/container"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// DefaultMarkitdownImage is the image run by the markitdown converter.
const DefaultMarkitdownImage = "markitdown:latest"

// Markitdown converts PDFs by piping them through the markitdown container
// image on a docker or podman runtime.
type Markitdown struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdown returns a converter for image on rt, or an error when the
// image is not present locally.
func NewMarkitdown(ctx context.Context, rt container.Runtime, image string) (*Markitdown, error) {
	if image == "" {
		image = DefaultMarkitdownImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &Markitdown{runtime: rt, image: image}, nil
}

// Name returns the backend identifier.
func (m *Markitdown) Name() string { return string(types.BackendMarkitdown) }

// Convert streams the PDF through the container and returns its Markdown.
func (m *Markitdown) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown produced empty output for %s", pdfPath)
	}
	return out.String(), nil
}
