package main

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	Home string // overrides the environment-resolved base directory
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen string
}
