package http

import (
	"bytes"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dooto/internal/core"
	applog "dooto/internal/log"
	"dooto/internal/pages"
)

// fullPages maps each fragment onto the page that contains it, for requests
// that did not come from htmx.
var fullPages = map[string]string{
	pages.ViewLoginPanel:        pages.ViewLogin,
	pages.ViewRegisterPanel:     pages.ViewRegister,
	pages.ViewAnalyticsPanel:    pages.ViewAnalytics,
	pages.ViewTransactionsPanel: pages.ViewTransactions,
	pages.ViewProfilePanel:      pages.ViewProfile,
	pages.ViewPasswordPanel:     pages.ViewProfile,
}

// PageData is the root of a full page template. Fragments receive the model alone.
type PageData struct {
	Active   string
	Model    any
	Notice   *pages.Notice
	NoticeMs int
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"vnd":      core.FormatVND,
		"date":     core.FormatDate,
		"join":     strings.Join,
		"birthday": pages.FormatBirthday,
		"action": func(name string) (string, error) {
			a, err := pages.ParseAction(name)
			if err != nil {
				return "", err
			}
			return "/actions/" + a.String(), nil
		},
	}
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	return template.New("dooto").Funcs(templateFuncs()).ParseFS(fsys, "templates/*.html")
}

func isFullPage(view string) bool {
	return strings.HasSuffix(view, ".html")
}

// noticeDuration returns the toast lifetime in milliseconds.
func noticeDuration(n *pages.Notice) int {
	if n.Duration > 0 {
		return int(n.Duration / time.Millisecond)
	}
	if n.Type == pages.NoticeError {
		return errorNotificationMs
	}
	return successNotificationMs
}

func (s *Server) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// respond writes an outcome. htmx requests get the fragment plus HX-Trigger
// events; plain requests get the full page or a 303 to the redirect target.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, out pages.Outcome) {
	ctx := r.Context()
	if out.Download != nil {
		writeDownload(w, out.Download)
		return
	}

	htmx := IsHTMX(r)
	if !htmx && out.Redirect != "" {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}
	if !htmx && out.View == pages.ViewPasswordPanel {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	if s.templates == nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentTemplate).ErrorContext(ctx, "Templates not loaded",
			applog.FieldPath, r.URL.Path,
		)
		InternalServerError("Không thể hiển thị trang").Write(w)
		return
	}

	view := out.View
	if page, ok := fullPages[view]; ok && !htmx {
		view = page
	}
	var data any = out.Model
	if isFullPage(view) {
		page := PageData{Active: strings.TrimSuffix(view, ".html"), Model: out.Model}
		if out.Notice != nil {
			page.Notice = out.Notice
			page.NoticeMs = noticeDuration(out.Notice)
		}
		data = page
	}

	body, err := s.render(view, data)
	if err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentTemplate).ErrorContext(ctx, "Template execution failed",
			"template", view,
			applog.FieldError, err,
		)
		InternalServerError("Không thể hiển thị trang").Write(w)
		return
	}

	b := NewHTMXResponse().BodyHTML(string(body))
	if out.Status != 0 {
		b.Status(out.Status)
	}
	if htmx {
		if n := out.Notice; n != nil {
			switch {
			case n.Duration > 0:
				b.TriggerNotification(NotificationType(n.Type), n.Message, noticeDuration(n))
			case n.Type == pages.NoticeSuccess:
				b.TriggerSuccessNotification(n.Message)
			case n.Type == pages.NoticeError:
				b.TriggerErrorNotification(n.Message)
			default:
				b.TriggerNotification(NotificationType(n.Type), n.Message, noticeDuration(n))
			}
		}
		if out.Redirect != "" {
			b.TriggerRedirect(out.Redirect, int(out.RedirectDelay/time.Millisecond))
		}
	}
	b.Write(w)
}

func writeDownload(w http.ResponseWriter, d *pages.Download) {
	NewHTMXResponse().
		Header("Content-Type", d.ContentType).
		Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName})).
		Header("Content-Length", strconv.Itoa(len(d.Data))).
		Body(d.Data).
		Write(w)
}
