package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_student_page",
		mcp.WithPromptDescription("Guide through building a one-page personal site for a student"),
		mcp.WithArgument("name",
			mcp.ArgumentDescription("Student name shown in the header"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the page is about"),
			mcp.RequiredArgument(),
		),
	), s.handleStudentPagePrompt)
}

func (s *Server) handleStudentPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := req.Params.Arguments["name"]
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a page for %s about %s", name, topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a one-page site for %s about "%s". Follow these steps:

1. Call list_block_types to see the palette
2. add_block a header, then update_block its props with the site title
3. add_block a hero with a short introduction to the topic
4. add_block a row, then add two or three blocks inside it (relation "inside") for the main points
5. add_block a footer
6. Check the result with get_state, fix mistakes with undo, move_block or update_block
7. Call save_site with studentName "%s"`, name, topic, name),
				},
			},
		},
	}, nil
}
