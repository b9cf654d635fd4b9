package logging

import "fmt"

func humanLine(ev Event) (string, bool) {
	switch ev.Event {
	case "startup":
		return fmt.Sprintf("开始扩充：provider=%s model=%s", ev.Provider, ev.Model), true
	case "tier_skip":
		return fmt.Sprintf("%s %s: 已达标（%d/%d），跳过", ev.Lang, ev.Tier, ev.Count, ev.Target), true
	case "tier_done":
		return fmt.Sprintf("%s %s: -> %d", ev.Lang, ev.Tier, ev.Count), true
	case "tier_exhausted":
		return fmt.Sprintf("%s %s: 模型已给不出新条目，提前结束（%d/%d）", ev.Lang, ev.Tier, ev.Count, ev.Target), true
	case "batch_shrink":
		return fmt.Sprintf("%s %s: 未获得新条目，单次请求量降为 %d", ev.Lang, ev.Tier, ev.BatchSize), true
	case "retry_backoff":
		return fmt.Sprintf("%s %s: 第 %d 次请求失败，%s 后重试：%s", ev.Lang, ev.Tier, ev.Attempt, FormatDurationMS(ev.WaitMS), ev.Error), true
	case "save_ok":
		return fmt.Sprintf("%s 已保存：%s", ev.Lang, ev.OutputFile), true
	case "language_failed":
		return fmt.Sprintf("%s 处理失败，本语言未保存：%s", ev.Lang, ev.Error), true
	}
	return "", false
}

// FormatDurationMS renders a millisecond count for progress and summary lines.
func FormatDurationMS(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60_000 {
		return fmt.Sprintf("%.2fs", float64(ms)/1000.0)
	}
	minutes := ms / 60_000
	remainMS := ms % 60_000
	if remainMS == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%.1fs", minutes, float64(remainMS)/1000.0)
}
