package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mit-pdos/blockfs/config"
	"github.com/mit-pdos/blockfs/fs"
	"github.com/mit-pdos/blockfs/fsck"
	"github.com/mit-pdos/blockfs/util"
)

// withVolume opens the image for one command and closes it afterwards.
func withVolume(
	cfg *config.Config,
	path string,
	f func(vol *fs.Volume, ctx *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		vol, err := fs.Open(path, cfg.Lock)
		if err != nil {
			return err
		}
		err = f(vol, ctx)
		if cerr := vol.Close(); err == nil {
			err = cerr
		}
		return err
	}
}

func nargs(n int, f func(vol *fs.Volume, ctx *cli.Context) error) func(*fs.Volume, *cli.Context) error {
	return func(vol *fs.Volume, ctx *cli.Context) error {
		if ctx.NArg() != n {
			return cli.Exit(fmt.Sprintf("%s: want %d arguments, got %d",
				ctx.Command.Name, n, ctx.NArg()), 2)
		}
		return f(vol, ctx)
	}
}

func commands(cfg *config.Config, path string) *cli.App {
	op := func(n int, f func(vol *fs.Volume, ctx *cli.Context) error) cli.ActionFunc {
		return withVolume(cfg, path, nargs(n, f))
	}
	return &cli.App{
		Name:  "fsop " + path,
		Usage: "operate on a blockfs image",
		Commands: []*cli.Command{{
			Name:      "list",
			Usage:     "list a directory",
			ArgsUsage: "<dirpath>",
			Action: op(1, func(vol *fs.Volume, ctx *cli.Context) error {
				ents, err := vol.List(ctx.Args().First())
				if err != nil {
					return err
				}
				return printList(ctx.App.Writer, cfg.Output, ents)
			}),
		}, {
			Name:      "mkdir",
			Usage:     "create a directory",
			ArgsUsage: "<dirpath>",
			Action: op(1, func(vol *fs.Volume, ctx *cli.Context) error {
				return vol.Mkdir(ctx.Args().First())
			}),
		}, {
			Name:      "rmdir",
			Usage:     "remove an empty directory",
			ArgsUsage: "<dirpath>",
			Action: op(1, func(vol *fs.Volume, ctx *cli.Context) error {
				return vol.Rmdir(ctx.Args().First())
			}),
		}, {
			Name:  "dumpe2fs",
			Usage: "dump the superblock, bitmap, occupied inodes and blocks",
			Action: op(0, func(vol *fs.Volume, ctx *cli.Context) error {
				return printDump(ctx.App.Writer, cfg.Output, vol.Dump())
			}),
		}, {
			Name:      "write",
			Usage:     "copy a host file into the image",
			ArgsUsage: "<fspath> <hostfile>",
			Action: op(2, func(vol *fs.Volume, ctx *cli.Context) error {
				data, err := os.ReadFile(ctx.Args().Get(1))
				if err != nil {
					return fmt.Errorf("reading host file: %w", err)
				}
				return vol.WriteFile(ctx.Args().Get(0), data)
			}),
		}, {
			Name:      "read",
			Usage:     "copy a file out of the image",
			ArgsUsage: "<fspath> <hostfile>",
			Action: op(2, func(vol *fs.Volume, ctx *cli.Context) error {
				data, err := vol.ReadFile(ctx.Args().Get(0))
				if err != nil {
					return err
				}
				if err := os.WriteFile(ctx.Args().Get(1), data, 0644); err != nil {
					return fmt.Errorf("writing host file: %w", err)
				}
				return nil
			}),
		}, {
			Name:      "del",
			Usage:     "remove a file",
			ArgsUsage: "<fspath>",
			Action: op(1, func(vol *fs.Volume, ctx *cli.Context) error {
				return vol.Del(ctx.Args().First())
			}),
		}, {
			Name:      "ln",
			Usage:     "create a hard link",
			ArgsUsage: "<fspath1> <fspath2>",
			Action: op(2, func(vol *fs.Volume, ctx *cli.Context) error {
				return vol.Ln(ctx.Args().Get(0), ctx.Args().Get(1))
			}),
		}, {
			Name:      "lnsym",
			Usage:     "create a symbolic link at fspath2 pointing to fspath1",
			ArgsUsage: "<fspath1> <fspath2>",
			Action: op(2, func(vol *fs.Volume, ctx *cli.Context) error {
				return vol.LnSym(ctx.Args().Get(0), ctx.Args().Get(1))
			}),
		}, {
			Name:  "fsck",
			Usage: "check the image for consistency",
			Action: op(0, func(vol *fs.Volume, ctx *cli.Context) error {
				r := fsck.Check(vol)
				printReport(ctx.App.Writer, r)
				if !r.Clean() {
					return cli.Exit(fmt.Sprintf("fsck: %d problems", len(r.Problems)), 1)
				}
				return nil
			}),
		}},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	util.SetDebug(cfg.Debug)

	app := &cli.App{
		Name:      "fsop",
		Usage:     "operate on a blockfs image",
		ArgsUsage: "<path> <command> [arguments...]",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() < 2 {
				cli.ShowAppHelpAndExit(ctx, 2)
			}
			path := ctx.Args().First()
			ops := commands(cfg, path)
			ops.Writer = ctx.App.Writer
			return ops.Run(append([]string{ops.Name}, ctx.Args().Tail()...))
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
