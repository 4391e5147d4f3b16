package messages

// Failure kinds. Each text is the condition scripts pattern-match on.
const (
	FailureVersionNotFound        = "version not found"
	FailureNoStableVersion        = "no stable version"
	FailureNotInstalled           = "not installed"
	FailureMissingVersionArgument = "version required"
	FailureMissingHookPath        = "hook path required"
	FailureUnexpectedArgument     = "unexpected argument"
	FailureInvalidHookEvent       = "invalid hook event"
	FailureNotAbsolutePath        = "not an absolute path"
	FailureNotExecutable          = "not an executable file"
	FailureHookFailed             = "hook failed"
	FailureTransport              = "transport failure"
	FailureExtraction             = "extraction failure"
)

// Version parsing and resolution messages.
const (
	VersionMalformed          = "malformed version"
	VersionMalformedFmt       = "%q: %w"
	VersionRequestNotFoundFmt = "%w: %q"
	VersionExtraArgumentFmt   = "%w %q after %s"
	ResolveNotFoundFmt        = "%w: %s %s"
	ResolveNoStableFmt        = "%w: %s %s"
	ResolveNoStableAny        = "any series"
	ResolveFeedFailedFmt      = "resolve %s: %w"
	ResolveDroppedEntry       = "dropping malformed feed entry"
)

// Release feed messages.
const (
	FeedCreateRequestFmt    = "create request %s: %w"
	FeedFetchFmt            = "%w: fetch %s: %w"
	FeedUnexpectedStatusFmt = "unexpected status %s"
	FeedDecodeFmt           = "%w: decode %s: %w"
	FeedRateLimitFmt        = "github api rate limit exceeded (%s, remaining=%s)"
	FeedUnknownFamilyFmt    = "no release feed for %s"
	FeedReleaseNotFoundFmt  = "%w: %s %s has no download for %s"
	FeedCacheReadFailed     = "read feed cache failed"
	FeedCacheDecodeFailed   = "decode feed cache failed"
	FeedCacheEncodeFmt      = "encode feed cache %s: %w"
	FeedSourceURLFmt        = "%s/mongodb-src-r%s.tar.gz"
	FeedModernShellURLFmt   = "%s/mongosh-%s-%s-%s.%s"
	FeedFetching            = "fetching release feed"
	FeedCacheHit            = "using cached release feed"
	FeedRetrying            = "retrying release feed request"
)

// Store messages.
const (
	StoreNotInstalledFmt   = "%s %s: %w"
	StoreCreateDirFmt      = "create %s: %w"
	StoreReadDirFmt        = "read %s: %w"
	StoreWriteRecordFmt    = "write install record %s: %w"
	StoreEncodeRecordFmt   = "encode install record: %w"
	StoreCommitFmt         = "commit %s into %s: %w"
	StoreReplaceFmt        = "replace previous install of %s: %w"
	StoreDropDuplicateFmt  = "drop duplicate install %s: %w"
	StoreReadActiveFmt     = "read active pointer %s: %w"
	StoreLinkActiveFmt     = "create active pointer: %w"
	StoreSwapActiveFmt     = "swap active pointer: %w"
	StoreClearActiveFmt    = "clear active pointer: %w"
	StoreRemoveDirFmt      = "remove %s: %w"
	StoreBinaryMissingFmt  = "%s %s has no %s binary: %w"
	StoreStageFmt          = "create staging dir: %w"
	StoreInvalidVersionFmt = "store requires a full version, got %q"
	StoreLockResourceFmt   = "%s store"
	StoreUnstageFmt        = "%s is not a staging directory"
)

// Hook registry messages.
const (
	HookEventFmt        = "%w: %q (expected pre|post)"
	HookPhaseFmt        = "%w: %q (expected install|change)"
	HookPathFmt         = "%w: %s"
	HookStatFmt         = "%w: %s: %v"
	HookReadFmt         = "read hooks %s: %w"
	HookDecodeFmt       = "decode hooks %s: %w"
	HookEncodeFmt       = "encode hooks: %w"
	HookFailedFmt       = "%s %s hook %s: %v"
	HookRunning         = "running hook"
	HookEnvEvent        = "M_HOOK_EVENT"
	HookEnvPhase        = "M_HOOK_PHASE"
	HookEnvFamily       = "M_HOOK_FAMILY"
	HookEnvVersion      = "M_HOOK_VERSION"
	HookEnvAssignFmt    = "%s=%s"
	HookListLineFmt     = "%s\n"
	HookRemoveMissedFmt = "%s %s hook %s was not registered\n"
	HookLockResource    = "hook registry"
)

// Download and extraction messages.
const (
	FetchCreateTempFmt        = "create temp file: %w"
	FetchDownloadFmt          = "%w: download %s: %w"
	FetchUnexpectedStatusFmt  = "%w: download %s: unexpected status %s"
	FetchDownload404Fmt       = "%w: download %s: not found (HTTP 404)"
	FetchTooLargeFmt          = "%w: download %s: response too large (%d bytes > limit %d bytes)"
	FetchWriteFmt             = "%w: write %s: %w"
	FetchOpenArchiveFmt       = "%w: open %s: %w"
	FetchUnsupportedFormatFmt = "%w: unsupported archive format %s"
	FetchReadEntryFmt         = "%w: read archive entry: %w"
	FetchUnsafeEntryFmt       = "%w: archive entry %q escapes destination"
	FetchWriteEntryFmt        = "%w: write %s: %w"
	FetchEmptyArchiveFmt      = "%w: archive %s contained no files"
	FetchDownloadingFmt       = "Downloading %s\n"
	FetchExtractingFmt        = "Extracting %s\n"
	FetchURLRequired          = "release has no download url"
	FetchMissingURLFmt        = "%w: %s"
	FetchRetrying             = "retrying download"
)

// Lifecycle engine messages.
const (
	EngineInstallingFmt        = "Installing: %s %s\n"
	EngineActivatingFmt        = "Activating: %s %s\n"
	EngineAlreadyActiveFmt     = "Already Active: %s %s\n"
	EngineCompleteFmt          = "Installation complete: %s %s\n"
	EngineRemovedFmt           = "Removed %s version %s\n"
	EngineRemoveMissingFmt     = "%s version %s is not installed\n"
	EngineAbortedFmt           = "Aborted: %s %s\n"
	EngineStateFmt             = "state %s"
	EngineFallback             = "falling back to legacy shell"
	EngineSystemRequired       = "lifecycle engine requires %s"
	EngineMaterializeFailedFmt = "materialize %s %s: %w"
)

// Dispatch messages.
const (
	// DispatchErrDispatched indicates dispatch was executed.
	DispatchErrDispatched       = "dispatch executed"
	DispatchSystemRequired      = "dispatch system is required"
	DispatchExitHandlerRequired = "exit handler is required"
	DispatchExecFailedFmt       = "exec %s: %w"
)

// Config messages.
const (
	ConfigResolvePrefixFmt = "resolve prefix %q: %w"
	ConfigReadFileFmt      = "read config %s: %w"
	ConfigInvalidTTLFmt    = "invalid cache_ttl %q: %w"
)

// Platform messages.
const (
	PlatformReadOSReleaseFmt   = "read %s: %w"
	PlatformLineErrorFmt       = "line %d: %w"
	PlatformExpectedKeyValue   = "expected KEY=VALUE"
	PlatformUnterminatedQuote  = "unterminated quoted value"
	PlatformUnsupportedOSFmt   = "unsupported OS %q"
	PlatformUnsupportedArchFmt = "unsupported architecture %q"
	PlatformUnknownDistroFmt   = "cannot map distribution %q %q to a MongoDB build target; set M_TARGET"
)

// Filesystem helper messages.
const (
	FsutilCreateTempFileFmt = "create temp file for %s: %w"
	FsutilSetPermissionsFmt = "set permissions for %s: %w"
	FsutilWriteTempFileFmt  = "write temp file for %s: %w"
	FsutilSyncTempFileFmt   = "sync temp file for %s: %w"
	FsutilCloseTempFileFmt  = "close temp file for %s: %w"
	FsutilRenameTempFileFmt = "rename temp file for %s: %w"
	FsutilOpenLockFmt       = "open %s lock %s: %w"
	FsutilLockFmt           = "lock %s (%s): %w"
	FsutilLockTimeoutFmt    = "%s is busy: timed out waiting for lock after %s"
	FsutilLockHeldByFmt     = "%s is busy: timed out after %s waiting for pid %d"
)
