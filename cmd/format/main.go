package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/config"
	"github.com/mit-pdos/blockfs/fs"
	"github.com/mit-pdos/blockfs/super"
	"github.com/mit-pdos/blockfs/util"
)

func parseArg(ctx *cli.Context, i int, name string) (uint64, error) {
	n, err := strconv.ParseUint(ctx.Args().Get(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, ctx.Args().Get(i), common.ErrInvalidConfig)
	}
	return n, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	util.SetDebug(cfg.Debug)

	app := &cli.App{
		Name:      "format",
		Usage:     "create a blockfs image",
		ArgsUsage: "<block_size_kb> <free_inodes> <path>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 3 {
				cli.ShowAppHelpAndExit(ctx, 2)
			}
			bs, err := parseArg(ctx, 0, "block size")
			if err != nil {
				return err
			}
			fi, err := parseArg(ctx, 1, "free inodes")
			if err != nil {
				return err
			}
			path := ctx.Args().Get(2)
			w := ctx.App.Writer
			fmt.Fprintf(w, "Block Size(KB): %d\n", bs)
			fmt.Fprintf(w, "Free Inodes   : %d\n", fi)
			fmt.Fprintf(w, "File path     : %s\n", path)

			vol, err := fs.Format(path, super.Params{
				BlockSizeKB: bs,
				FreeInodes:  fi,
				ImageSize:   cfg.ImageSize,
			})
			if err != nil {
				return err
			}
			sb := vol.Super()
			fmt.Fprintf(w, "%d blocks, %d inode blocks, %d free blocks, uuid %s\n",
				sb.TotalBlocks, sb.InodeBlocks, sb.FreeBlocks, sb.UUID)
			return vol.Close()
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
