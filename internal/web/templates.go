package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/jaminalder/tictactoe-timeline/internal/app"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"add": func(a, b int) int { return a + b },
		"mul": func(a, b int) int { return a * b },
		"orderParam": func(desc bool) string {
			if desc {
				return "desc"
			}
			return "asc"
		},
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.board-row{display:flex}
.square{width:3em;height:3em;font-size:1.5em}
.square.highlighted{background:#ffe066}
.current-move{font-weight:bold;margin:0}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic-Tac-Toe</h1><form action="/game" method="post"><button>New game</button></form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Tic-Tac-Toe</h1>
<form action="/game" method="post"><button>New game</button></form>
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events?order={{orderParam .Desc}}">
  <div hx-sse="swap:board">{{template "board" .}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status">{{.Game.Status}}</div>
  <div class="game-board">
  {{range $r := iter 3}}
  <div class="board-row">
    {{range $c := iter 3}}{{$i := add (mul $r 3) $c}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="cell" value="{{$i}}">
        <input type="hidden" name="order" value="{{orderParam $.Desc}}">
        <button type="submit" class="square{{if $.Game.Highlighted $i}} highlighted{{end}}" data-cell="{{$i}}"{{if not ($.Game.Playable $i)}} disabled{{end}}>{{index $.Game.Board $i}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
  </div>
  <div class="game-info">
    <a class="toggle-order" href="/game/{{.ID}}?order={{orderParam (not .Desc)}}">Toggle order</a>
    <ol class="moves">
    {{range .Game.MovesInOrder .Desc}}
      <li data-move="{{.Number}}">
      {{if .Current}}
        <p class="current-move">{{.Description}}</p>
      {{else}}
        <form hx-post="/game/{{$.ID}}/jump" hx-target="#board" hx-swap="outerHTML" method="post">
          <input type="hidden" name="position" value="{{.Number}}">
          <input type="hidden" name="order" value="{{orderParam $.Desc}}">
          <button type="submit">{{.Description}}</button>
        </form>
      {{end}}
      </li>
    {{end}}
    </ol>
  </div>
</div>
`

// boardData feeds both the page and the fragment templates.
type boardData struct {
	ID    string
	Game  app.GameView
	Error string
	Desc  bool
}

// descOrder reads the history order from the query string or form.
func descOrder(r *http.Request) bool {
	return r.FormValue("order") == "desc"
}
