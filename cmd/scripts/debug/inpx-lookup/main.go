package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/linkshelf/pkg/inpx"
	"github.com/shishobooks/linkshelf/pkg/resolver"
)

func main() {
	log := logger.New()

	var opts struct {
		Index string `short:"i" long:"inpx" description:"A path to the INPX index" required:"true"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) == 0 {
		fmt.Println("go run ./cmd/scripts/debug/inpx-lookup -i <path/to/library.inpx> <id|file.fb2>...")
		os.Exit(1)
	}

	idx, err := inpx.Load(context.Background(), opts.Index)
	if err != nil {
		log.Err(err).Fatal("inpx load error")
	}
	fmt.Printf("Collection: %s\nBooks:      %d\n", idx.Collection(), idx.Len())

	for _, arg := range args {
		id, ok := resolver.FileID(arg, nil)
		if !ok {
			fmt.Printf("\n%s: not a file id\n", arg)
			continue
		}
		book, ok := idx.Lookup(id)
		if !ok {
			fmt.Printf("\n%d: not in the index\n", id)
			continue
		}
		fmt.Printf("\n[%d]\n%s\n", id, book)
	}
}
