package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/service"
)

func (s *Server) registerSiteTools() {
	s.mcp.AddTool(mcp.NewTool("save_site",
		mcp.WithDescription("Save the current page as a site record. Without siteId it updates the site that was opened, or creates a new one."),
		mcp.WithString("siteId", mcp.Description("Site ID (optional)")),
		mcp.WithString("studentName", mcp.Description("Author name")),
		mcp.WithString("studentEmail", mcp.Description("Author email")),
		mcp.WithString("studentClass", mcp.Description("Author class")),
	), s.handleSaveSite)

	s.mcp.AddTool(mcp.NewTool("open_site",
		mcp.WithDescription("Load a saved site into the editor, with its undo history when stored"),
		mcp.WithString("siteId", mcp.Description("Site ID"), mcp.Required()),
	), s.handleOpenSite)

	s.mcp.AddTool(mcp.NewTool("new_site",
		mcp.WithDescription("Start an empty, unsaved page"),
	), s.handleNewSite)

	s.mcp.AddTool(mcp.NewTool("list_sites",
		mcp.WithDescription("List saved sites, newest first"),
	), s.handleListSites)

	s.mcp.AddTool(mcp.NewTool("delete_site",
		mcp.WithDescription("Delete a saved site record"),
		mcp.WithString("siteId", mcp.Description("Site ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteSite)

	s.mcp.AddTool(mcp.NewTool("mark_email_sent",
		mcp.WithDescription("Record that a site was sent by email"),
		mcp.WithString("siteId", mcp.Description("Site ID"), mcp.Required()),
	), s.handleMarkEmailSent)
}

type siteSummary struct {
	ID          string             `json:"id"`
	StudentInfo domain.StudentInfo `json:"studentInfo"`
	Blocks      int                `json:"blocks"`
	EmailSent   bool               `json:"emailSent"`
	CreatedAt   string             `json:"createdAt"`
	UpdatedAt   string             `json:"updatedAt"`
}

func summarizeSite(site domain.Site) siteSummary {
	return siteSummary{
		ID:          site.ID,
		StudentInfo: site.StudentInfo,
		Blocks:      len(site.Blocks),
		EmailSent:   site.EmailSent,
		CreatedAt:   site.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:   site.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (s *Server) handleSaveSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	site, err := s.sites.SaveSession(ctx, service.SaveSiteInput{
		ID: req.GetString("siteId", ""),
		StudentInfo: domain.StudentInfo{
			Name:  req.GetString("studentName", ""),
			Email: req.GetString("studentEmail", ""),
			Class: req.GetString("studentClass", ""),
		},
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeSite(*site))
}

func (s *Server) handleOpenSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "siteId")
	if err != nil {
		return nil, err
	}
	site, err := s.sites.OpenSite(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emitBlocksChanged(ctx, "open_site")
	return jsonResult(summarizeSite(*site))
}

func (s *Server) handleNewSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.sites.NewSite(ctx)
	s.emitBlocksChanged(ctx, "new_site")
	return textResult("started a new site"), nil
}

func (s *Server) handleListSites(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sites, err := s.sites.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]siteSummary, len(sites))
	for i, site := range sites {
		out[i] = summarizeSite(site)
	}
	return jsonResult(out)
}

func (s *Server) handleDeleteSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "siteId")
	if err != nil {
		return nil, err
	}
	if err := s.sites.DeleteSite(ctx, id); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("deleted site %s", id)), nil
}

func (s *Server) handleMarkEmailSent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "siteId")
	if err != nil {
		return nil, err
	}
	if err := s.sites.MarkEmailSent(ctx, id); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("site %s marked as emailed", id)), nil
}
