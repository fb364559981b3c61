package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Greeting and help
	"bot.greeting": "Hi! Send me one or more video links and I'll parse them into your queue. Use /list to see and pick items to process.",

	// Queue list rendering
	"list.header": "Current download queue:",
	"list.empty":  "Nothing is being processed or queued right now.",

	// Status labels shown next to queue entries
	"status.parse_failed":    "[parse failed]",
	"status.download_failed": "[download failed]",
	"status.downloading":     "[downloading]",
	"status.sending":         "[sending]",
	"status.probing":         "[parsing]",
	"status.unknown_title":   "unknown video",

	// Queue list buttons
	"button.download": "Download %d",
	"button.reparse":  "Re-parse %d",
	"button.view":     "View %d",
	"button.remove":   "Remove %d",
	"button.clear":    "Clear list",

	// Quality selection buttons
	"button.quality_medium": "Try medium quality (720p/480p)",
	"button.quality_lowest": "Try lowest quality (144p)",
	"button.save_to_list":   "Save to list",
	"button.cancel":         "Cancel",

	// Inbound message handling
	"msg.no_url":           "Please send a valid video link.",
	"msg.duplicate_failed": "Video `%s` (%s) is already in the list with status `%s`. Use /list to act on it.",
	"msg.flood":            "You're sending links too fast. Please wait a moment.",
	"msg.session_reset":    "Your session expired or was missing and has been reset. Please resend the link.",

	// Button handling
	"msg.active_busy":       "A download is already in progress. Wait for it to finish or cancel it.",
	"msg.invalid_selection": "Invalid selection, the video may have been removed or is already being processed. Use /list for the latest state.",
	"msg.wrong_status":      "Item `%s` has status `%s` and cannot be started.",
	"msg.no_reparse_needed": "Item `%s` has status `%s` and does not need re-parsing.",
	"msg.processing":        "Processing your request, please wait...",
	"msg.start_download":    "Starting download: %s...",
	"msg.start_reparse":     "Re-parsing: %s...",
	"msg.removed":           "Removed from the list.",
	"msg.remove_missing":    "That item no longer exists or was already processed. Use /list for the latest state.",
	"msg.cleared":           "List cleared.",
	"msg.expired_action":    "This action has expired or does not apply to the current task. Use /list for the latest state.",

	// Probe stage
	"probe.no_estimate":     "Found video %s but couldn't estimate its size. Downloading; quality options will be offered based on the actual size if needed...",
	"probe.too_large":       "Video %s is estimated at about %.2fGB, exceeding the %.2fGB upload limit.",
	"probe.start_download":  "Found video: %s (%.2fMB), downloading...",
	"probe.needs_selection": "Video %s is estimated at about %.2fMB. It's large; pick a quality to try, or save it for later.",
	"reparse.failed":        "Re-parsing %s failed: %s. Try again or check the link.",

	// Transfer stage
	"transfer.timeout": "Download timed out (%s).",
	"transfer.failed":  "Video download failed: %s. Check that the link is valid, or try again later.",
	"transfer.lost":    "Download failed: the downloaded file could not be found. Retry or check the link.",

	// Post-transfer size gate
	"actual.too_large":       "Video %s is actually about %.2fGB, exceeding the %.2fGB upload limit.",
	"actual.needs_selection": "Video %s is actually %.2fMB, over the %dMB direct-video limit. Pick another quality, or save it to the list for later.",

	// Delivery stage
	"delivery.sending": "Download complete, sending...",
	"delivery.failed":  "Sending the file failed: %s. You can retry from the list or pick another quality.",

	// Quality selection outcomes
	"quality.medium_chosen": "Medium quality selected. Retrying download of %s...",
	"quality.lowest_chosen": "Lowest quality selected. Retrying download of %s...",
	"quality.saved":         "Video %s saved back to the pending list. Use /list to see it.",
	"quality.cancelled":     "Download of %s cancelled.",

	// Captions for delivered media
	"caption.video":         "Video: %s",
	"caption.document":      "File: %s",
	"caption.mirror_prefix": "[auto-forward] ",

	// Errors
	"error.internal": "An error occurred while processing %s: %s. Please try again later.",
	"error.generic":  "An error occurred while processing the request. Use /list for the latest state.",
}
