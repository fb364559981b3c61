package core

import "strings"

// Format selectors handed to the media fetcher. FormatDefault marks an item
// that never went through quality selection.
const (
	FormatDefault = "best"
	FormatMedium  = "bestvideo[height<=720]+bestaudio/best[height<=720]/" +
		"bestvideo[height<=480]+bestaudio/best[height<=480]"
	FormatLowest = "worst"
)

// CommandKind tags a decoded inline keyboard action.
type CommandKind int

const (
	CommandNoop CommandKind = iota
	CommandStart
	CommandReparse
	CommandRemove
	CommandClearAll
	CommandQuality
	CommandSave
	CommandCancel
)

func (k CommandKind) String() string {
	switch k {
	case CommandNoop:
		return "noop"
	case CommandStart:
		return "start"
	case CommandReparse:
		return "reparse"
	case CommandRemove:
		return "remove"
	case CommandClearAll:
		return "clear_all"
	case CommandQuality:
		return "quality"
	case CommandSave:
		return "save"
	case CommandCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Command is a decoded callback action. ItemID is set for item-scoped
// commands, Format for quality selections.
type Command struct {
	Kind   CommandKind
	ItemID string
	Format string
}

const (
	callbackNoop   = "noop"
	callbackClear  = "clear_all"
	callbackMedium = "quality_medium"
	callbackLowest = "quality_lowest"
	callbackSave   = "save_to_list"
	callbackCancel = "cancel_download"
	prefixStart    = "start_"
	prefixReparse  = "reparse_"
	prefixRemove   = "remove_"
)

// DecodeCallback parses inline keyboard callback data. Unrecognized data
// decodes to a noop so stale buttons never act.
func DecodeCallback(data string) Command {
	switch data {
	case callbackClear:
		return Command{Kind: CommandClearAll}
	case callbackMedium:
		return Command{Kind: CommandQuality, Format: FormatMedium}
	case callbackLowest:
		return Command{Kind: CommandQuality, Format: FormatLowest}
	case callbackSave:
		return Command{Kind: CommandSave}
	case callbackCancel:
		return Command{Kind: CommandCancel}
	}

	switch {
	case strings.HasPrefix(data, prefixStart):
		return Command{Kind: CommandStart, ItemID: data[len(prefixStart):]}
	case strings.HasPrefix(data, prefixReparse):
		return Command{Kind: CommandReparse, ItemID: data[len(prefixReparse):]}
	case strings.HasPrefix(data, prefixRemove):
		return Command{Kind: CommandRemove, ItemID: data[len(prefixRemove):]}
	}

	return Command{Kind: CommandNoop}
}

// Callback data encoders, kept next to the decoder so the two stay in sync.

func EncodeStart(itemID string) string { return prefixStart + itemID }

func EncodeReparse(itemID string) string { return prefixReparse + itemID }

func EncodeRemove(itemID string) string { return prefixRemove + itemID }

func EncodeClearAll() string { return callbackClear }

func EncodeNoop() string { return callbackNoop }

func EncodeQualityMedium() string { return callbackMedium }

func EncodeQualityLowest() string { return callbackLowest }

func EncodeSave() string { return callbackSave }

func EncodeCancel() string { return callbackCancel }
