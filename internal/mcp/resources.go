package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	sessionBlocksURI = "sitebuilder://session/blocks"
	sessionStateURI  = "sitebuilder://session/state"
	blockTypesURI    = "sitebuilder://block-types"
	sitePrefix       = "sitebuilder://sites/"
)

func (s *Server) registerResources() {
	// ── sitebuilder://session/blocks ───────────────────
	s.mcp.AddResource(mcp.NewResource(
		sessionBlocksURI,
		"Blocks on the Page",
		mcp.WithResourceDescription("The block tree as the canvas draws it (hidden blocks skipped in preview)"),
		mcp.WithMIMEType("application/json"),
	), s.handleSessionBlocksResource)

	// ── sitebuilder://session/state ────────────────────
	s.mcp.AddResource(mcp.NewResource(
		sessionStateURI,
		"Editor State",
		mcp.WithMIMEType("application/json"),
	), s.handleSessionStateResource)

	// ── sitebuilder://block-types ──────────────────────
	s.mcp.AddResource(mcp.NewResource(
		blockTypesURI,
		"Block Palette",
		mcp.WithMIMEType("application/json"),
	), s.handleBlockTypesResource)

	// ── sitebuilder://sites/{siteId} ───────────────────
	if s.sites != nil {
		s.mcp.AddResourceTemplate(
			mcp.NewResourceTemplate(sitePrefix+"{siteId}", "Saved Site"),
			s.handleSiteResource,
		)
	}
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSessionBlocksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(sessionBlocksURI, s.session.RenderBlocks())
}

func (s *Server) handleSessionStateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(sessionStateURI, s.session.State())
}

func (s *Server) handleBlockTypesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(blockTypesURI, s.registry.Types())
}

func (s *Server) handleSiteResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := siteIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract siteId from URI: %s", uri)
	}
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, site)
}

// siteIDFromURI extracts the id from "sitebuilder://sites/{id}".
func siteIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, sitePrefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
