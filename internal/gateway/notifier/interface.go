package notifier

// TextNotifier is the minimal surface the pipeline needs to reach an
// operator: a failed fetch run becomes one text message. Keeping it this
// small lets callers stay ignorant of the concrete channel (e.g. Telegram).
type TextNotifier interface {
	SendText(text string) error
}
