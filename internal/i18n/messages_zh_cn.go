package i18n

// simplifiedChineseMessages contains all Simplified Chinese translations.
var simplifiedChineseMessages = map[string]string{
	"bot.greeting": "你好！请发送一个或多个视频链接给我，我会尝试解析并添加到队列。您可以使用 /list 查看和选择要处理的项目。",

	"list.header": "当前视频处理队列：",
	"list.empty":  "当前没有正在处理或排队的视频。",

	"status.parse_failed":    "[解析失败]",
	"status.download_failed": "[下载失败]",
	"status.downloading":     "[下载中]",
	"status.sending":         "[发送中]",
	"status.probing":         "[解析中]",
	"status.unknown_title":   "未知视频",

	"button.download": "下载 %d",
	"button.reparse":  "重解析 %d",
	"button.view":     "查看 %d",
	"button.remove":   "移除 %d",
	"button.clear":    "清空列表",

	"button.quality_medium": "尝试中等质量 (720p/480p)",
	"button.quality_lowest": "尝试最低质量 (144p)",
	"button.save_to_list":   "保存到列表",
	"button.cancel":         "取消",

	"msg.no_url":           "请发送有效的视频链接。",
	"msg.duplicate_failed": "视频 `%s` (%s) 已在列表中，状态为 `%s`。您可以使用 /list 重新操作。",
	"msg.flood":            "发送太频繁，请稍后再试。",
	"msg.session_reset":    "会话信息已过期或不存在，已重置。请重新发送链接。",

	"msg.active_busy":       "当前已有下载任务正在进行，请等待或取消当前任务。",
	"msg.invalid_selection": "无效的选择，视频可能已被移除或正在处理中。请使用 /list 查看最新状态。",
	"msg.wrong_status":      "该项目 `%s` 状态为 `%s`，无法开始下载。",
	"msg.no_reparse_needed": "该项目 `%s` 状态为 `%s`，无需重新解析。",
	"msg.processing":        "正在处理您的请求，请稍候...",
	"msg.start_download":    "开始下载：%s...",
	"msg.start_reparse":     "开始重新解析：%s...",
	"msg.removed":           "已从列表中移除。",
	"msg.remove_missing":    "该项目不存在或已被处理。请使用 /list 查看最新状态。",
	"msg.cleared":           "列表已清空。",
	"msg.expired_action":    "该操作已过期或不适用于当前任务。请使用 /list 查看最新状态。",

	"probe.no_estimate":     "找到视频：%s，但无法预估文件大小。将尝试下载，并根据实际大小决定是否提供清晰度选项，请稍候...",
	"probe.too_large":       "视频 %s 预估大小约为 %.2fGB，超出 %.2fGB 上传限制，无法处理。",
	"probe.start_download":  "找到视频：%s (大小: %.2fMB)，开始下载...",
	"probe.needs_selection": "视频 %s 预估大小约为 %.2fMB。文件较大，请选择清晰度以尝试下载，或保存到列表后续处理。",
	"reparse.failed":        "重新解析视频 %s 失败：%s。请重试或检查链接。",

	"transfer.timeout": "下载超时 (%s)。",
	"transfer.failed":  "视频下载失败：%s。请检查链接是否有效、视频是否存在，或稍后再试。",
	"transfer.lost":    "下载失败：未能找到下载的视频文件，请重试或检查链接。",

	"actual.too_large":       "视频 %s 实际大小约为 %.2fGB，超出 %.2fGB 上传限制，无法处理。",
	"actual.needs_selection": "视频 %s 实际大小为 %.2fMB，超过 %dMB，需要您选择其他清晰度，或将其保存到列表后续处理。",

	"delivery.sending": "视频下载完成，正在发送...",
	"delivery.failed":  "发送文件时发生错误：%s。您可以从列表重试，或选择其他清晰度。",

	"quality.medium_chosen": "您选择了：中等质量。正在重新尝试下载视频 %s...",
	"quality.lowest_chosen": "您选择了：最低质量。正在重新尝试下载视频 %s...",
	"quality.saved":         "视频 %s 已保存回待处理列表。您可以使用 /list 查看。",
	"quality.cancelled":     "已取消视频 %s 的下载。",

	"caption.video":         "视频：%s",
	"caption.document":      "文件：%s",
	"caption.mirror_prefix": "[自动转发] ",

	"error.internal": "处理视频 %s 时发生错误：%s。请稍后再试。",
	"error.generic":  "处理请求时发生错误。请使用 /list 查看最新状态。",
}
