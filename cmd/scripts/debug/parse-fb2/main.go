package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/linkshelf/pkg/fb2"
	"github.com/shishobooks/linkshelf/pkg/linker"
	"github.com/shishobooks/linkshelf/pkg/mediafile"
	"github.com/shishobooks/linkshelf/pkg/resolver"
)

func main() {
	log := logger.New()

	var opts struct {
		Plan string `short:"p" long:"plan" description:"Print the links this file would get under the given destination"`
		Raw  bool   `short:"r" long:"raw" description:"Skip content sniffing and parse the file even if it doesn't look like XML"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/parse-fb2 <path/to/file.fb2>")
		os.Exit(1)
	}

	if opts.Raw {
		book, err := fb2.Parse(args[0])
		if err != nil {
			log.Err(err).Fatal("fb2 parse error")
		}
		fmt.Println(book)
		printPlan(opts.Plan, book, args[0])
		return
	}

	ctx := logger.NewWithLevel("debug").WithContext(context.Background())
	book := (&resolver.EmbeddedResolver{}).Resolve(ctx, args[0])
	if book == nil {
		fmt.Println("No metadata found")
		os.Exit(1)
	}
	fmt.Println(book)
	printPlan(opts.Plan, book, args[0])
}

func printPlan(dest string, book *mediafile.FictionBook, path string) {
	if dest == "" {
		return
	}
	fmt.Println()
	for _, p := range linker.Plan(dest, book, filepath.Base(path)) {
		fmt.Printf("%-22s %s\n", p.Kind, p.Path)
	}
}
