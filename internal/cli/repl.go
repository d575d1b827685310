package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isOnboarded(ctx context.Context) bool
	Onboard(ctx context.Context, args []string) error
	Settings(ctx context.Context, args []string) error
	SetKey(ctx context.Context, args []string) error
	Usage(ctx context.Context, args []string) error
	Profiles(ctx context.Context, args []string) error
	AddProfile(ctx context.Context, args []string) error
	DeleteProfile(ctx context.Context, args []string) error
	AddNickname(ctx context.Context, args []string) error
	DeleteNickname(ctx context.Context, args []string) error
	Categories(ctx context.Context, args []string) error
	AddCategory(ctx context.Context, args []string) error
	DeleteCategory(ctx context.Context, args []string) error
	AddPhrase(ctx context.Context, args []string) error
	DeletePhrase(ctx context.Context, args []string) error
	Translate(ctx context.Context, args []string) error
	Say(ctx context.Context, args []string) error
	Backup(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
	Backups(ctx context.Context, args []string) error
	ClearCache(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  settings                 show settings
  setkey                   set or clear the translation API key
  usage                    show translation quota usage
  profiles                 list family members
  addprofile               add a family member
  delprofile <id>          delete a family member
  addnick <profile-id>     add a nickname
  delnick <profile-id> <nickname-id>
  categories [lang]        list phrase categories
  addcat                   add a category
  delcat <id>              delete a category
  addphrase <category-id>  add a phrase
  delphrase <category-id> <phrase-id>
  translate <text>         translate from the source to the target language
  say <phrase-id> <profile-id>
                           render a phrase for a family member
  backup [name]            write a backup (add 's3' to push to object storage)
  restore <name>           restore a backup (add 's3' to read from object storage)
  backups                  list backups
  clearcache               drop cached translations
  stats                    show record counts and metrics
  onboard                  run the welcome setup again
  exit | quit              leave the program`

// runREPL reads one command per line from reader and dispatches it to a.
// The loop exits on EOF or when the user types "exit" or "quit". Command
// errors are reported and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("famlink %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		var cmdErr error
		switch cmd {
		case "help", "?":
			printlnFn(helpText)
		case "onboard":
			cmdErr = a.Onboard(ctx, args)
		case "settings":
			cmdErr = a.Settings(ctx, args)
		case "setkey":
			cmdErr = a.SetKey(ctx, args)
		case "usage":
			cmdErr = a.Usage(ctx, args)
		case "profiles", "p":
			cmdErr = a.Profiles(ctx, args)
		case "addprofile":
			cmdErr = a.AddProfile(ctx, args)
		case "delprofile":
			cmdErr = a.DeleteProfile(ctx, args)
		case "addnick":
			cmdErr = a.AddNickname(ctx, args)
		case "delnick":
			cmdErr = a.DeleteNickname(ctx, args)
		case "categories", "c":
			cmdErr = a.Categories(ctx, args)
		case "addcat":
			cmdErr = a.AddCategory(ctx, args)
		case "delcat":
			cmdErr = a.DeleteCategory(ctx, args)
		case "addphrase":
			cmdErr = a.AddPhrase(ctx, args)
		case "delphrase":
			cmdErr = a.DeletePhrase(ctx, args)
		case "translate", "t":
			cmdErr = a.Translate(ctx, args)
		case "say":
			cmdErr = a.Say(ctx, args)
		case "backup":
			cmdErr = a.Backup(ctx, args)
		case "restore":
			cmdErr = a.Restore(ctx, args)
		case "backups":
			cmdErr = a.Backups(ctx, args)
		case "clearcache":
			cmdErr = a.ClearCache(ctx, args)
		case "stats":
			cmdErr = a.Stats(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("error:", describeError(cmdErr))
		}
		if err != nil {
			return
		}
	}
}
