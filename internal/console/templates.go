package console

import (
	"html/template"
	"time"

	"github.com/nextgen-sip/console/internal/render"
	"github.com/nextgen-sip/console/internal/view"
)

type navItem struct {
	Page   view.Page
	Label  string
	Active bool
}

type chartBar struct {
	Label   string
	Value   float64
	Percent int // 0-100
}

// pageData is the full model behind the console page and its swappable
// main content.
type pageData struct {
	Active   view.Page
	Epoch    uint64
	Title    string
	Subtitle string
	Nav      []navItem

	KPIs         template.HTML
	SubRows      template.HTML
	SubCount     string
	CallRows     template.HTML
	CallCount    string
	ConfigPanel  template.HTML
	NetworkPanel template.HTML
	Activity     template.HTML

	Throughput   []chartBar
	Distribution []chartBar
	ChartsJSON   template.JS

	AddOpen    bool
	BalOpen    bool
	PollMillis int64
}

var navLabels = map[view.Page]string{
	view.PageOverview:    "Overview",
	view.PageSubscribers: "Subscribers",
	view.PageCalls:       "Live Calls",
	view.PageCDR:         "Call Records",
	view.PageSecurity:    "Security",
	view.PageNetwork:     "Network",
	view.PageSettings:    "Settings",
}

func bars(d render.ChartDataset) []chartBar {
	var maxVal float64
	for _, v := range d.Data {
		if v > maxVal {
			maxVal = v
		}
	}
	out := make([]chartBar, len(d.Data))
	for i, v := range d.Data {
		pct := 0
		if maxVal > 0 {
			pct = int(v * 100 / maxVal)
		}
		if pct < 2 && v > 0 {
			pct = 2 // minimum visible bar
		}
		out[i] = chartBar{Label: d.Labels[i], Value: v, Percent: pct}
	}
	return out
}

func (s *Server) pageData() pageData {
	active := s.nav.Active()
	info := view.Info(active)

	items := make([]navItem, 0, len(view.Pages()))
	for _, p := range view.Pages() {
		items = append(items, navItem{Page: p, Label: navLabels[p], Active: p == active})
	}

	subs, _ := s.snaps.Subscribers()
	calls, _ := s.snaps.Calls()
	platform := s.snaps.Platform()

	intervalSecs := int(s.pollInterval / time.Second)
	if intervalSecs < 1 {
		intervalSecs = 1
	}
	throughput := render.ThroughputChart(intervalSecs)
	distribution := render.CallDistributionChart()

	return pageData{
		Active:       active,
		Epoch:        s.nav.Epoch(),
		Title:        info.Title,
		Subtitle:     info.Subtitle,
		Nav:          items,
		KPIs:         template.HTML(render.KPIGrid(s.snaps.Stats())),
		SubRows:      template.HTML(render.SubscriberRows(subs)),
		SubCount:     render.GroupThousands(len(subs)),
		CallRows:     template.HTML(render.CallRows(calls, time.Now())),
		CallCount:    render.GroupThousands(len(calls)),
		ConfigPanel:  template.HTML(render.ConfigPanel(platform)),
		NetworkPanel: template.HTML(render.NetworkPanel(platform)),
		Activity:     template.HTML(render.ActivityItems(s.activity.Entries())),
		Throughput:   bars(throughput),
		Distribution: bars(distribution),
		ChartsJSON: template.JS(`{"throughput":` + render.ChartJSON(throughput) +
			`,"distribution":` + render.ChartJSON(distribution) + `}`),
		AddOpen:    s.modals.IsOpen(view.ModalAddSubscriber),
		BalOpen:    s.modals.IsOpen(view.ModalEditBalance),
		PollMillis: s.pollInterval.Milliseconds(),
	}
}

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>sipconsole — login</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
:root{
  --bg:#0a0e14;--surface:#111722;--border:#263245;
  --text:#dce4f2;--text2:#7f8ea8;--text3:#4f5d75;
  --accent:#38bdf8;--accent-dim:#0ea5e9;--danger:#ef4444;
  --mono:'SF Mono','Fira Code','JetBrains Mono',monospace;
  --sans:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;
}
body{font-family:var(--sans);background:var(--bg);color:var(--text);min-height:100vh;display:flex;align-items:center;justify-content:center}
.login-card{background:var(--surface);border:1px solid var(--border);border-radius:12px;padding:48px 40px;max-width:400px;width:100%;text-align:center}
.logo{font-family:var(--mono);font-size:1.5rem;font-weight:700;margin-bottom:8px}
.logo span{color:var(--accent)}
.subtitle{color:var(--text2);font-size:0.85rem;margin-bottom:32px}
.help{color:var(--text3);font-size:0.78rem;margin-bottom:24px;line-height:1.6}
.help code{background:var(--bg);padding:2px 6px;border-radius:4px;font-family:var(--mono);font-size:0.75rem;color:var(--accent)}
input[type=text]{width:100%;padding:14px 16px;background:var(--bg);border:1px solid var(--border);border-radius:8px;color:var(--text);font-family:var(--mono);font-size:1.2rem;text-align:center;letter-spacing:4px;outline:none}
input[type=text]:focus{border-color:var(--accent)}
button{width:100%;padding:12px;margin-top:16px;background:var(--accent-dim);color:#fff;border:none;border-radius:8px;font-size:0.9rem;font-weight:600;cursor:pointer}
.error{color:var(--danger);font-size:0.82rem;margin-top:12px}
.footer{margin-top:32px;color:var(--text3);font-size:0.72rem}
</style>
</head>
<body>
<div class="login-card">
  <div class="logo">sip<span>console</span></div>
  <div class="subtitle">Carrier Console Access</div>
  <p class="help">Enter the access code shown in your terminal.<br>Run <code>sipconsole serve</code> to get a code.</p>
  <form method="POST" action="/console/login" autocomplete="off">
    <input type="text" name="code" placeholder="00000000" maxlength="8" pattern="\d{8}" inputmode="numeric" autofocus required>
    <button type="submit">Authenticate</button>
  </form>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <p class="footer">Local access only &middot; 127.0.0.1</p>
</div>
</body>
</html>`))

// mainContent is the swappable page body. Navigation POSTs re-render it
// server-side and the browser replaces <main> wholesale.
const mainContent = `<header>
<h1>{{.Title}}</h1>
<p class="page-desc">{{.Subtitle}}</p>
</header>
<div class="page" data-epoch="{{.Epoch}}">
{{if eq .Active "overview"}}
<div id="kpi-grid" class="kpi-grid">{{.KPIs}}</div>
<div class="charts">
  <div class="card">
    <h2>Packet Throughput</h2>
    <div class="chart">{{range .Throughput}}<div class="bar" style="height:{{.Percent}}%" title="{{.Label}}: {{.Value}}"></div>{{end}}</div>
  </div>
  <div class="card">
    <h2>Calls by Hour</h2>
    <div class="chart">{{range .Distribution}}<div class="bar alt" style="height:{{.Percent}}%" title="{{.Label}}: {{.Value}}"></div>{{end}}</div>
  </div>
</div>
<div class="card">
  <h2>Recent Activity</h2>
  <ul id="activity-log" class="activity">{{.Activity}}</ul>
</div>
{{else if eq .Active "subscribers"}}
<div class="card">
  <div class="card-head">
    <h2>Accounts <span class="count" id="sub-count">{{.SubCount}}</span></h2>
    <button class="btn" data-action="open-add">Add Subscriber</button>
  </div>
  <table>
    <thead><tr><th>Name</th><th>ID</th><th>SIP URI</th><th>Balance</th><th>Tier</th><th>Actions</th></tr></thead>
    <tbody id="sub-tbody">{{.SubRows}}</tbody>
  </table>
</div>
{{else if eq .Active "calls"}}
<div class="card">
  <div class="card-head"><h2>Sessions <span class="count" id="call-count">{{.CallCount}}</span></h2></div>
  <table>
    <thead><tr><th>From</th><th>To</th><th>State</th><th>Duration</th><th>Rate</th><th>Tenant</th></tr></thead>
    <tbody id="call-tbody">{{.CallRows}}</tbody>
  </table>
</div>
{{else if eq .Active "cdr"}}
<div class="card">
  <h2>Call Detail Records</h2>
  <p class="hint">Completed calls are rated and archived by the billing engine. Export tooling lives on the carrier platform.</p>
</div>
{{else if eq .Active "security"}}
<div class="card">
  <h2>Threat Protection</h2>
  <p class="hint">The SIP firewall blocks sources after repeated failed registrations. Thresholds are shown on the Settings page.</p>
</div>
{{else if eq .Active "network"}}
<div class="card">
  <h2>Topology</h2>
  <div id="network-panel">{{.NetworkPanel}}</div>
</div>
{{else if eq .Active "settings"}}
<div class="card">
  <h2>Platform Parameters</h2>
  <div id="config-panel">{{.ConfigPanel}}</div>
</div>
{{end}}
</div>`

const consolePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>sipconsole — {{.Title}}</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
:root{
  --bg:#0a0e14;--surface:#111722;--surface2:#182132;--border:#263245;
  --text:#dce4f2;--text2:#7f8ea8;--text3:#4f5d75;
  --accent:#38bdf8;--accent-dim:#0ea5e9;
  --danger:#ef4444;--success:#22c55e;--warn:#f59e0b;
  --mono:'SF Mono','Fira Code','JetBrains Mono',monospace;
  --sans:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;
}
body{font-family:var(--sans);background:var(--bg);color:var(--text);min-height:100vh}
nav{background:var(--surface);border-bottom:1px solid var(--border);padding:0 24px;display:flex;align-items:center;height:52px;position:sticky;top:0;z-index:100}
nav .logo{font-family:var(--mono);font-size:1.1rem;font-weight:700;margin-right:32px;color:var(--text)}
nav .logo span{color:var(--accent)}
nav button.nav-link{background:none;border:none;color:var(--text2);font-size:0.82rem;padding:16px 12px;cursor:pointer;border-bottom:2px solid transparent}
nav button.nav-link:hover{color:var(--text)}
nav button.nav-link.active{color:var(--accent);border-bottom-color:var(--accent)}
nav .spacer{flex:1}
main{max-width:1100px;margin:0 auto;padding:32px 24px}
h1{font-size:1.4rem;font-weight:600;margin-bottom:8px}
.page-desc{color:var(--text2);font-size:0.85rem;margin-bottom:28px}
.page{animation:enter .25s ease}
@keyframes enter{from{opacity:0;transform:translateY(6px)}to{opacity:1;transform:none}}
.kpi-grid{display:grid;grid-template-columns:repeat(4,1fr);gap:16px;margin-bottom:32px}
.kpi{background:var(--surface);border:1px solid var(--border);border-radius:10px;padding:20px}
.kpi-label{color:var(--text3);font-size:0.72rem;text-transform:uppercase;letter-spacing:1px;margin-bottom:6px}
.kpi-value{font-family:var(--mono);font-size:1.8rem;font-weight:700}
.card{background:var(--surface);border:1px solid var(--border);border-radius:10px;padding:20px;margin-bottom:20px}
.card h2{font-size:0.95rem;font-weight:600;margin-bottom:16px}
.card-head{display:flex;align-items:center;justify-content:space-between;margin-bottom:16px}
.card-head h2{margin-bottom:0}
.count{font-family:var(--mono);color:var(--accent);margin-left:8px}
.charts{display:grid;grid-template-columns:1fr 1fr;gap:20px}
.chart{display:flex;align-items:flex-end;gap:3px;height:140px}
.chart .bar{flex:1;background:var(--accent-dim);border-radius:2px 2px 0 0;min-height:1px}
.chart .bar.alt{background:var(--warn)}
table{width:100%;border-collapse:collapse;font-size:0.82rem}
th{text-align:left;color:var(--text3);font-size:0.7rem;text-transform:uppercase;letter-spacing:1px;padding:8px 12px;border-bottom:1px solid var(--border)}
td{padding:10px 12px;border-bottom:1px solid var(--border);color:var(--text2);font-size:0.8rem}
tr:hover td{background:var(--surface2)}
td.mono,.mono{font-family:var(--mono);font-size:0.76rem}
td.empty-state{text-align:center;color:var(--text3);padding:28px 12px}
.balance-pos{color:var(--success)}
.balance-neg{color:var(--danger)}
.tier{padding:3px 8px;border-radius:4px;font-size:0.7rem;font-weight:600}
.tier-user{background:#38bdf820;color:var(--accent)}
.tier-reseller{background:#f59e0b20;color:var(--warn)}
.tier-admin{background:#ef444420;color:var(--danger)}
.state{background:#22c55e20;color:var(--success);padding:3px 8px;border-radius:4px;font-size:0.7rem}
.activity{list-style:none;font-family:var(--mono);font-size:0.76rem;color:var(--text2)}
.activity li{padding:6px 0;border-bottom:1px solid var(--border)}
.cfg-row,.net-row{display:flex;justify-content:space-between;padding:10px 0;border-bottom:1px solid var(--border);font-size:0.84rem}
.cfg-label,.net-label{color:var(--text2)}
.cfg-value,.net-value{font-family:var(--mono)}
.hint{color:var(--text3);font-size:0.82rem;line-height:1.6}
.btn{background:var(--accent-dim);color:#fff;border:none;border-radius:6px;padding:8px 14px;font-size:0.8rem;font-weight:600;cursor:pointer}
.btn-sm{background:var(--surface2);color:var(--text);border:1px solid var(--border);border-radius:5px;padding:4px 10px;font-size:0.72rem;cursor:pointer}
.btn-sm.danger{color:var(--danger);border-color:#ef444440}
.modal-backdrop{position:fixed;inset:0;background:#000a;display:none;align-items:center;justify-content:center;z-index:200}
.modal-backdrop.open{display:flex}
.modal{background:var(--surface);border:1px solid var(--border);border-radius:12px;padding:28px;width:380px}
.modal h3{font-size:1rem;margin-bottom:18px}
.modal label{display:block;color:var(--text2);font-size:0.76rem;margin:12px 0 4px}
.modal input,.modal select{width:100%;padding:9px 12px;background:var(--bg);border:1px solid var(--border);border-radius:6px;color:var(--text);font-size:0.84rem;outline:none}
.modal .actions{display:flex;gap:10px;margin-top:20px;justify-content:flex-end}
</style>
</head>
<body>
<nav>
  <div class="logo">sip<span>console</span></div>
  {{range .Nav}}<button class="nav-link{{if .Active}} active{{end}}" data-page="{{.Page}}">{{.Label}}</button>{{end}}
  <div class="spacer"></div>
  <form method="POST" action="/console/logout"><button class="btn-sm" type="submit">Logout</button></form>
</nav>
<main id="main">
{{template "main" .}}
</main>

<div class="modal-backdrop{{if .AddOpen}} open{{end}}" id="modal-add-sub" data-modal="add-sub">
  <div class="modal">
    <h3>Add Subscriber</h3>
    <form id="add-sub-form">
      <label>ID</label><input name="id" required>
      <label>Username</label><input name="username" required>
      <label>Password</label><input name="password" type="password">
      <label>Initial Balance</label><input name="balance" value="0">
      <label>Tier</label>
      <select name="level"><option value="0">User</option><option value="1">Reseller</option><option value="2">Admin</option></select>
      <div class="actions">
        <button type="button" class="btn-sm" data-action="close-add">Cancel</button>
        <button type="submit" class="btn">Create</button>
      </div>
    </form>
  </div>
</div>

<div class="modal-backdrop{{if .BalOpen}} open{{end}}" id="modal-edit-bal" data-modal="edit-bal">
  <div class="modal">
    <h3>Update Balance</h3>
    <form id="edit-bal-form">
      <input type="hidden" name="id">
      <label>New Balance</label><input name="amount" required>
      <div class="actions">
        <button type="button" class="btn-sm" data-action="close-bal">Cancel</button>
        <button type="submit" class="btn">Save</button>
      </div>
    </form>
  </div>
</div>

<script>
const charts = {{.ChartsJSON}};

const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/console/ws");
ws.onmessage = (ev) => {
  const frag = JSON.parse(ev.data);
  const el = document.getElementById(frag.target);
  if (el) el.innerHTML = frag.html;
};

async function navigate(page) {
  const resp = await fetch("/console/navigate/" + page, {method: "POST"});
  if (!resp.ok || resp.status === 204) return;
  document.getElementById("main").innerHTML = await resp.text();
  document.querySelectorAll("nav .nav-link").forEach(b =>
    b.classList.toggle("active", b.dataset.page === page));
}

function setModal(id, open) {
  document.getElementById(id).classList.toggle("open", open);
}

document.addEventListener("click", async (ev) => {
  if (ev.target.dataset && ev.target.dataset.modal) {
    await fetch("/console/modal/" + ev.target.dataset.modal + "/close", {method: "POST"});
    ev.target.classList.remove("open");
    return;
  }

  const nav = ev.target.closest("[data-page]");
  if (nav) { navigate(nav.dataset.page); return; }

  const btn = ev.target.closest("[data-action]");
  if (!btn) return;
  const id = btn.dataset.id;

  switch (btn.dataset.action) {
  case "open-add":
    await fetch("/console/modal/add-sub/open", {method: "POST"});
    document.getElementById("add-sub-form").reset();
    setModal("modal-add-sub", true);
    break;
  case "close-add":
    await fetch("/console/modal/add-sub/close", {method: "POST"});
    setModal("modal-add-sub", false);
    break;
  case "close-bal":
    await fetch("/console/modal/edit-bal/close", {method: "POST"});
    setModal("modal-edit-bal", false);
    break;
  case "balance": {
    await fetch("/console/modal/edit-bal/open", {method: "POST"});
    const form = document.getElementById("edit-bal-form");
    form.elements.id.value = id;
    form.elements.amount.value = btn.dataset.balance;
    setModal("modal-edit-bal", true);
    break;
  }
  case "delete":
    if (!confirm("Delete subscriber " + id + "?")) return;
    await fetch("/console/subscribers/" + encodeURIComponent(id) + "?confirm=yes", {method: "DELETE"});
    break;
  }
});

document.getElementById("add-sub-form").addEventListener("submit", async (ev) => {
  ev.preventDefault();
  const resp = await fetch("/console/subscribers", {method: "POST", body: new FormData(ev.target)});
  if (resp.ok) { ev.target.reset(); setModal("modal-add-sub", false); }
});

document.getElementById("edit-bal-form").addEventListener("submit", async (ev) => {
  ev.preventDefault();
  const id = ev.target.elements.id.value;
  const body = new FormData();
  body.set("amount", ev.target.elements.amount.value);
  await fetch("/console/subscribers/" + encodeURIComponent(id) + "/balance", {method: "POST", body});
  setModal("modal-edit-bal", false);
});
</script>
</body>
</html>`

var (
	mainTmpl    = template.Must(template.New("main").Parse(mainContent))
	consoleTmpl = template.Must(template.Must(mainTmpl.Clone()).New("console").Parse(consolePage))
)
