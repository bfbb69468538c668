package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"VolSentinel/internal/ledger"
	"VolSentinel/internal/model"
)

// Scheduler drives the runner on the morning/evening crons and
// answers interactive Telegram commands.
type Scheduler struct {
	Cron   *cron.Cron
	Runner *Runner
	Ctx    context.Context
}

// NewScheduler creates a Scheduler.
func NewScheduler(ctx context.Context, r *Runner) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: r,
		Ctx:    ctx,
	}
}

// RegisterAll registers the morning and evening runs. The evening run
// upserts the same calendar day's records, re-estimating intraday
// rather than adding a second prediction.
func (s *Scheduler) RegisterAll(morningCron, eveningCron string) error {
	if _, err := s.Cron.AddFunc(morningCron, func() { s.runTask("morning") }); err != nil {
		return fmt.Errorf("register morning task: %w", err)
	}
	if _, err := s.Cron.AddFunc(eveningCron, func() { s.runTask("evening") }); err != nil {
		return fmt.Errorf("register evening task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runTask(mode string) {
	log.Info().Str("mode", mode).Msg("scheduled run")
	if _, err := s.Runner.Run(s.Ctx); err != nil {
		log.Error().Err(err).Str("mode", mode).Msg("run failed")
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/report", "查看日报":
		go s.runTask("manual")
		return ""
	case "/stats", "查看胜率":
		return s.statsText()
	case "/pending", "查看待验证":
		return s.pendingText()
	default:
		return "可用命令:\n• /report 立即生成日报\n• /stats 查看历史胜率\n• /pending 查看待验证预测"
	}
}

func (s *Scheduler) statsText() string {
	lg, err := ledger.Load(s.Runner.ledgerPath)
	if err != nil {
		return fmt.Sprintf("❌ 读取账本失败: %v", err)
	}
	wins, resolved := lg.Stats()
	if resolved == 0 {
		return "🎯 暂无已验证记录"
	}
	return fmt.Sprintf("🎯 <b>历史胜率</b>\n%.1f%% (%d/%d)", lg.WinRate()*100, wins, resolved)
}

func (s *Scheduler) pendingText() string {
	lg, err := ledger.Load(s.Runner.ledgerPath)
	if err != nil {
		return fmt.Sprintf("❌ 读取账本失败: %v", err)
	}
	today := s.Runner.now().Format(model.DateLayout)
	pending := lg.FindUnresolved(today)
	if len(pending) == 0 {
		return "✅ 没有待验证的预测"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("⏳ <b>待验证预测</b> (%d 条)\n", len(pending)))
	for _, rec := range pending {
		b.WriteString(fmt.Sprintf("%s %s: %.2f ~ %.2f\n", rec.Date, rec.Name, rec.LowPred, rec.HighPred))
	}
	return b.String()
}
