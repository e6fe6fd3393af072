package view

import (
	"html/template"
	"io"
	"strconv"

	"github.com/cleberrangel/delivery-board/internal/model"
)

// Nome do template da página de entregas
const DeliveriesPage = "deliveries"

// PageData é o dado entregue ao template
type PageData struct {
	Title string
	Page  model.Page
}

// NewPageData monta o dado da página
func NewPageData(page model.Page) PageData {
	return PageData{Title: "List of Deliveries", Page: page}
}

// CountLabel é o texto do contador de entregas filtradas
func (d PageData) CountLabel() string {
	return "You have " + strconv.Itoa(d.Page.Total) + " active deliveries"
}

var funcs = template.FuncMap{
	"orDefault": func(s, fallback string) string {
		if s == "" {
			return fallback
		}
		return s
	},
}

// Templates devolve o conjunto de templates já parseado
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).Parse(tmplDeliveries))
}

// Render escreve a página de entregas
func Render(w io.Writer, data PageData) error {
	return Templates().ExecuteTemplate(w, DeliveriesPage, data)
}

const tmplDeliveries = `
{{define "deliveries"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,-apple-system,"Segoe UI",Roboto,sans-serif;margin:0;background:#f5f6f8;color:#212529}
.container{max-width:960px;margin:0 auto;padding:0 16px}
h1{margin:24px 0}
.search{display:flex;gap:8px;margin-bottom:24px}
.search input{flex:1;padding:8px 12px;border:1px solid #ced4da;border-radius:4px;font-size:1rem}
.search button{border:0;background:none;font-size:1.5rem;cursor:pointer}
.lazy{margin-bottom:16px}
.placeholder{display:flex;justify-content:center;align-items:center;height:200px}
.spinner{width:2rem;height:2rem;border:3px solid #007bff;border-right-color:transparent;border-radius:50%;animation:spin 1s linear infinite}
@keyframes spin{to{transform:rotate(360deg)}}
.card-link-wrapper{text-decoration:none;color:inherit;display:block}
.task-card{position:relative;overflow:hidden;background:#fff;border-radius:6px;box-shadow:0 1px 3px rgba(0,0,0,.12);padding:16px}
.shaded-bg{position:absolute;top:0;left:0;bottom:0;background:rgba(0,123,255,.08);pointer-events:none}
.card-body{position:relative;display:flex;justify-content:space-between;align-items:center}
.planned{font-weight:700;font-size:1.5rem}
.progress{height:1rem;background:#e9ecef;border-radius:4px;overflow:hidden;margin-top:8px;width:240px}
.progress-bar{height:100%}
.bg-success{background:#28a745}
.bg-warning{background:#ffc107}
.bg-danger{background:#dc3545}
.meta{text-align:right;color:#6c757d}
.meta p{margin:0 0 4px}
h5{position:relative;margin:16px 0 0;font-size:1.1rem}
.delivery-list-end{height:1px;margin-bottom:20px}
</style>
</head>
<body>
<div class="container">
<h1>{{.Title}}</h1>
<form class="search" method="get" action="/deliveries">
<input type="text" name="q" value="{{.Page.Term}}" placeholder="Search for deliveries..." autocomplete="off">
<button type="submit" aria-label="filter">&#128269;</button>
</form>
<p id="count">{{.CountLabel}}</p>
<div id="deliveries">
{{range .Page.Cards}}{{template "card" .}}{{end}}
</div>
<div class="delivery-list-end"></div>
</div>
{{template "scripts"}}
</body>
</html>
{{end}}

{{define "card"}}<div class="lazy" data-lazy>
<div class="placeholder"><div class="spinner"></div></div>
<template>
<a href="{{.Link}}" class="card-link-wrapper">
<div class="task-card">
<div class="shaded-bg" style="width: {{.ProgressLabel}}%"></div>
<div class="card-body">
<div>
<span class="planned">&#10004; {{.PlannedLabel}} of {{.TotalLabel}} Planned</span>
<div class="progress" role="progressbar" aria-valuenow="{{.ProgressLabel}}" aria-valuemin="0" aria-valuemax="100">
<div class="progress-bar bg-{{.Tier}}" style="width: {{.ProgressLabel}}%"></div>
</div>
</div>
<div class="meta">
<p>&#128339; {{orDefault .Initiated "No start time"}}</p>
<p>&#9873; {{.Deadline}}</p>
</div>
</div>
<h5>{{.Client}}</h5>
</div>
</a>
</template>
</div>
{{end}}

{{define "scripts"}}<script>
(function () {
  function mount(el) {
    var tpl = el.querySelector('template');
    if (!tpl) return;
    el.replaceChildren(tpl.content.cloneNode(true));
  }

  var observer = 'IntersectionObserver' in window ? new IntersectionObserver(function (entries) {
    entries.forEach(function (entry) {
      if (!entry.isIntersecting) return;
      observer.unobserve(entry.target);
      mount(entry.target);
    });
  }, { rootMargin: '100px 0px' }) : null;

  function observeAll(root) {
    root.querySelectorAll('[data-lazy]').forEach(function (el) {
      if (observer) observer.observe(el); else mount(el);
    });
  }
  observeAll(document);

  // filtra a cada tecla sem recarregar a página
  var input = document.querySelector('input[name=q]');
  var list = document.getElementById('deliveries');
  var count = document.getElementById('count');
  var seq = 0;
  input.addEventListener('input', function () {
    var term = input.value;
    var current = ++seq;
    var url = '/deliveries?q=' + encodeURIComponent(term);
    fetch(url, { headers: { 'Accept': 'text/html' } })
      .then(function (res) { return res.text(); })
      .then(function (body) {
        if (current !== seq) return;
        var doc = new DOMParser().parseFromString(body, 'text/html');
        if (observer) observer.disconnect();
        list.replaceChildren.apply(list, Array.from(doc.getElementById('deliveries').childNodes));
        count.textContent = doc.getElementById('count').textContent;
        history.replaceState(null, '', url);
        observeAll(list);
      })
      .catch(function (e) { console.error('Error filtering deliveries:', e); });
  });

  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  try {
    var ws = new WebSocket(proto + location.host + '/ws');
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === 'deliveries_updated') {
        location.reload();
      }
    };
  } catch (e) {
    console.error('Error opening update channel:', e);
  }
})();
</script>
{{end}}
`
