package server

import (
	"bytes"
	"strconv"

	"github.com/Hara602/pageSentry/internal/dashboard"
	"github.com/Hara602/pageSentry/internal/metrics"
	"github.com/Hara602/pageSentry/internal/model"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (s *Server) tabFor(c *fiber.Ctx, userAgent string) *tab {
	id := c.Cookies(TabCookie)
	t := s.pages.tab(id, userAgent)
	if id != t.id {
		c.Cookie(&fiber.Cookie{
			Name:     TabCookie,
			Value:    t.id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return t
}

func (s *Server) handlePageLoad(c *fiber.Ctx) error {
	var load PageLoad
	if err := c.BodyParser(&load); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid page load body")
	}
	if load.UserAgent == "" {
		load.UserAgent = c.Get(fiber.HeaderUserAgent)
	}

	t := s.tabFor(c, load.UserAgent)
	p := s.pages.openPage(s.baseCtx, t, load)
	s.logger.Debug("page attached", zap.String("tab", t.id), zap.String("page", p.id), zap.String("url", load.URL))

	return c.Status(fiber.StatusCreated).JSON(PageCreated{
		PageID:    p.id,
		SessionID: t.identity.GetOrCreate(c.UserContext()),
	})
}

func (s *Server) handlePageUnload(c *fiber.Ctx) error {
	if !s.pages.closePage(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "unknown page")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSignal(c *fiber.Ctx) error {
	p, ok := s.pages.page(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown page")
	}
	var sig Signal
	if err := c.BodyParser(&sig); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid signal body")
	}
	p.touch(s.opts.Clock())

	decision, err := s.dispatch(c, p, sig)
	if err != nil {
		return err
	}
	metrics.SignalsReceived.WithLabelValues(sig.Kind, strconv.FormatBool(decision.PreventDefault)).Inc()
	return c.JSON(decision)
}

// dispatch 按信号类型交给对应的观察器
func (s *Server) dispatch(c *fiber.Ctx, p *page, sig Signal) (model.Decision, error) {
	ctx := c.UserContext()
	g := p.guards

	switch sig.Kind {
	case SignalContextMenu:
		return g.ContextMenu.OnContextMenu(), nil
	case SignalKeyDown:
		if sig.Key == nil {
			return model.Decision{}, fiber.NewError(fiber.StatusBadRequest, "keydown requires key")
		}
		return g.Keyboard.OnKeyDown(ctx, *sig.Key), nil
	case SignalClick:
		return g.Links.OnClick(ctx, sig.Href), nil
	case SignalMutation:
		// 浏览器不支持时 feed 为 nil，信号被忽略
		if p.mutations != nil {
			p.mutations.deliver(sig.Nodes)
		}
		return model.Decision{}, nil
	case SignalElements:
		if sig.Counts == nil {
			return model.Decision{}, fiber.NewError(fiber.StatusBadRequest, "elements requires counts")
		}
		if p.elements != nil {
			p.elements.update(*sig.Counts)
		}
		return model.Decision{}, nil
	case SignalCSP:
		if sig.Violation == nil {
			return model.Decision{}, fiber.NewError(fiber.StatusBadRequest, "csp requires violation")
		}
		if p.violations != nil {
			p.violations.deliver(*sig.Violation)
		}
		return model.Decision{}, nil
	case SignalHashChange:
		if sig.URL != "" {
			p.tab.sink.Environment().SetURL(sig.URL)
		}
		return g.Hash.OnHashChange(ctx, sig.Hash), nil
	case SignalDragOver:
		return g.Transfer.OnDragOver(), nil
	case SignalDrop:
		return g.Transfer.OnDrop(ctx, sig.Files), nil
	case SignalPaste:
		return g.Transfer.OnPaste(ctx, sig.Text), nil
	case SignalNavigate:
		p.tab.sink.Environment().SetURL(sig.URL)
		return model.Decision{}, nil
	}
	return model.Decision{}, fiber.NewError(fiber.StatusBadRequest, "unknown signal kind "+strconv.Quote(sig.Kind))
}

type dashboardResponse struct {
	dashboard.Snapshot
	Fields            map[string]string `json:"fields"`
	Alerts            []dashboard.Alert `json:"alerts"`
	RefreshIntervalMs int64             `json:"refreshIntervalMs"`
}

func (s *Server) handleDashboard(c *fiber.Ctx) error {
	t := s.tabFor(c, c.Get(fiber.HeaderUserAgent))
	r := t.dashboard(s.opts.Dashboard)
	ctx := c.UserContext()

	snap := r.Refresh(ctx)
	return c.JSON(dashboardResponse{
		Snapshot:          snap,
		Fields:            snap.Stats.Fields(),
		Alerts:            r.CheckForAlerts(ctx),
		RefreshIntervalMs: r.RefreshInterval().Milliseconds(),
	})
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	t := s.tabFor(c, c.Get(fiber.HeaderUserAgent))
	r := t.dashboard(s.opts.Dashboard)

	var buf bytes.Buffer
	if err := r.ExportLogs(c.UserContext(), &buf); err != nil {
		s.logger.Error("export failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "export failed")
	}
	c.Attachment(dashboard.ExportFileName(s.opts.Clock()))
	c.Type("json")
	return c.Send(buf.Bytes())
}

func (s *Server) handleClear(c *fiber.Ctx) error {
	t := s.tabFor(c, c.Get(fiber.HeaderUserAgent))
	r := t.dashboard(s.opts.Dashboard)

	confirmed := c.QueryBool("confirm", false)
	cleared, err := r.ClearLogs(c.UserContext(), dashboard.ConfirmFunc(func(string) bool { return confirmed }))
	if err != nil {
		s.logger.Error("clear failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "clear failed")
	}
	if !cleared {
		return fiber.NewError(fiber.StatusConflict, dashboard.ClearPrompt)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
