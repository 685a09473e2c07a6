package portfolio

import "embed"

// TemplateFS contains the embedded HTML templates used for rendering the portfolio page. These templates
// are organized in a directory structure that separates layouts, pages, and partial views.
//
//go:embed templates/*
var TemplateFS embed.FS

// StaticFS contains the embedded static assets such as JavaScript, CSS, and image files required for
// the portfolio page and its chat widget.
//
//go:embed static/*
var StaticFS embed.FS

// DefaultProfile is the example knowledge base used when no profile file is configured.
//
//go:embed profile.example.yaml
var DefaultProfile []byte
