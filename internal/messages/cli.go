package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse = "m [version|command]"
	// RootShort is the short description for the root command.
	RootShort       = "MongoDB Version Management"
	RootLong        = "m installs, activates, and removes MongoDB server, database tools, and shell releases."
	RootVersionFlag = "Print version and exit"
	RootLatestFlag  = "Print the latest version (optionally within a series) and exit"
	RootStableFlag  = "Print the latest stable version (optionally within a series) and exit"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	LsUse       = "ls [series]"
	LsShort     = "List available versions"
	LsAliasList = "list"
	LsAliasAv   = "available"
	LsAliasAvl  = "avail"
	LsJSONFlag  = "Print versions as JSON"

	InstalledUse      = "installed"
	InstalledShort    = "List installed versions"
	InstalledAlias    = "lls"
	InstalledJSONFlag = "Print installed versions as JSON"

	ReinstallUse   = "reinstall <version>"
	ReinstallShort = "Remove and install a version again"

	RmUse      = "rm <version>..."
	RmShort    = "Remove installed versions"
	RmAlias    = "remove"
	RmAliasUn  = "uninstall"
	UseUse     = "use <version> [args...]"
	UseShort   = "Run mongod from an installed server version"
	ShardUse   = "shard <version> [args...]"
	ShardShort = "Run mongos from an installed server version"
	ShellUse   = "shell <version> [args...]"
	ShellShort = "Run the shell for a version, falling back to the legacy shell"
	// ShellAliasS and ShellAliasMongo keep the short and historical shell command names.
	ShellAliasS      = "s"
	ShellAliasMongo  = "mongo"
	BinUse           = "bin <version>"
	BinShortFmt      = "Print the bin directory of an installed %s version"
	BinAlias         = "which"
	ActivateUse      = "activate <version>"
	ActivateShortFmt = "Switch to an installed %s version without downloading"
	SrcUse           = "src <version>"
	SrcShort         = "Print the source tarball URL of a server version"

	FamilyUseFmt      = "%s [version|command]"
	FamilyShortFmt    = "Manage %s versions"
	FamilyToolsName   = "tools"
	FamilyMongoshName = "mongosh"
	FamilyLegacyName  = "legacy"

	HookUseFmt   = "%s <install|change> [path | rm path]"
	HookShortFmt = "List, add, or remove %s-event hooks"
	HookRmToken  = "rm"

	// PromptInstallFmt asks before downloading.
	PromptInstallFmt = "Download and install %s %s?"

	NoInstalledVersions = "No installed versions"
	HookNoneRegistered  = "No hooks registered"
	HookAddedFmt        = "Added %s hook %s: %s\n"
	HookRemovedFmt      = "Removed %s hook %s: %s\n"
	HookUnchangedFmt    = "%s %s hook %s is already registered\n"

	AppConfigLoaded        = "config loaded"
	AppPlatformUnavailable = "no published target for this host"
	AppExecBinary          = "exec"
	AppRateLimitHint       = "hint: set M_GITHUB_TOKEN or GITHUB_TOKEN to raise the GitHub API rate limit"
)
