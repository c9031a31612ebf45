package view

import (
	"bytes"
	"html/template"
)

// CategoryView is one category card on the navigation page.
type CategoryView struct {
	ID       uint
	Name     string
	Icon     string
	Websites []WebsiteView
}

// WebsiteView is one bookmark entry on the navigation page.
type WebsiteView struct {
	ID          uint
	Title       string
	Description string
	Icon        string
	Domain      string
	ClickCount  int64
	ClickURL    string
	Tags        []string
}

// HomePageData provides the dynamic fields for the navigation page.
type HomePageData struct {
	SiteName        string
	SiteDescription string
	Theme           string
	Query           string
	Categories      []CategoryView
}

var homePageTmpl = template.Must(template.New("home_page").Parse(`
<!DOCTYPE html>
<html lang="en" data-theme="{{if .Theme}}{{.Theme}}{{else}}default{{end}}">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.SiteName}}</title>
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: #7dd3fc;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		html[data-theme="light"] {
			--bg: #f5f6fa;
			--card: #ffffff;
			--border: #e2e4ee;
			--text: #1b1f2d;
			--muted: #5d6478;
			--accent: #2563eb;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			background: var(--bg);
			color: var(--text);
			padding: 32px clamp(16px, 5vw, 64px);
		}
		header h1 { margin: 0 0 4px; font-size: 1.8rem; }
		header p { color: var(--muted); margin: 0 0 24px; }
		form.search { margin-bottom: 28px; }
		form.search input {
			width: min(420px, 100%);
			padding: 10px 14px;
			border-radius: 10px;
			border: 1px solid var(--border);
			background: var(--card);
			color: var(--text);
		}
		section.category { margin-bottom: 32px; }
		section.category h2 { font-size: 1.1rem; margin-bottom: 12px; }
		.grid {
			display: grid;
			grid-template-columns: repeat(auto-fill, minmax(240px, 1fr));
			gap: 14px;
		}
		a.site {
			display: block;
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 14px;
			padding: 16px;
			text-decoration: none;
			color: inherit;
		}
		a.site:hover { border-color: var(--accent); }
		a.site .title { font-weight: 600; margin-bottom: 4px; }
		a.site .desc { color: var(--muted); font-size: 0.85rem; }
		a.site .meta { color: var(--muted); font-size: 0.75rem; margin-top: 8px; }
		.tag { color: var(--accent); margin-right: 6px; }
	</style>
</head>
<body>
	<header>
		<h1>{{.SiteName}}</h1>
		<p>{{.SiteDescription}}</p>
	</header>
	<form class="search" action="/search" method="get">
		<input type="search" name="q" placeholder="Search bookmarks..." value="{{.Query}}" />
	</form>
	{{range .Categories}}
	<section class="category">
		<h2>{{if .Icon}}{{.Icon}} {{end}}{{.Name}}</h2>
		<div class="grid">
			{{range .Websites}}
			<a class="site" href="{{.ClickURL}}">
				<div class="title">{{if .Icon}}{{.Icon}} {{end}}{{.Title}}</div>
				{{if .Description}}<div class="desc">{{.Description}}</div>{{end}}
				<div class="meta">
					{{range .Tags}}<span class="tag">#{{.}}</span>{{end}}
					{{.Domain}} &middot; {{.ClickCount}} clicks
				</div>
			</a>
			{{end}}
		</div>
	</section>
	{{end}}
</body>
</html>
`))

// RenderHomePage renders the navigation page.
func RenderHomePage(data HomePageData) (string, error) {
	var buf bytes.Buffer
	if err := homePageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ErrorPageData provides the dynamic fields for the error page.
type ErrorPageData struct {
	SiteName string
	Status   int
	Message  string
}

var errorPageTmpl = template.Must(template.New("error_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Status}} - {{.SiteName}}</title>
	<style>
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: #090a0f;
			color: #e7ecff;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		.card { text-align: center; }
		h1 { font-size: 3rem; margin-bottom: 8px; }
		p { color: #a1acc5; }
		a { color: #7dd3fc; }
	</style>
</head>
<body>
	<div class="card">
		<h1>{{.Status}}</h1>
		<p>{{.Message}}</p>
		<p><a href="/">Back to {{.SiteName}}</a></p>
	</div>
</body>
</html>
`))

// RenderErrorPage renders a minimal error page.
func RenderErrorPage(data ErrorPageData) (string, error) {
	var buf bytes.Buffer
	if err := errorPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
