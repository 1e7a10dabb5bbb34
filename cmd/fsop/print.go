package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/config"
	"github.com/mit-pdos/blockfs/fs"
	"github.com/mit-pdos/blockfs/fsck"
	"github.com/mit-pdos/blockfs/inode"
)

const bitsPerLine = 80

func printYAML(w io.Writer, v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling yaml: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func printList(w io.Writer, output string, ents []fs.Entry) error {
	if output == config.OutputYAML {
		return printYAML(w, ents)
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, e := range ents {
		fmt.Fprintf(tw, "%d\t%v\t%d\t%d\t%s\t%s\n", e.Inum, e.Kind, e.Links, e.Size,
			e.Mtime.Format(time.ANSIC), e.Name)
	}
	return tw.Flush()
}

func printSuper(w io.Writer, sb fs.SuperInfo) {
	fmt.Fprintf(w, "==========SUPERBLOCK==========\n")
	fmt.Fprintf(w, "state               : %d\n", sb.State)
	fmt.Fprintf(w, "total blocks        : %d\n", sb.TotalBlocks)
	fmt.Fprintf(w, "free blocks         : %d\n", sb.FreeBlocks)
	fmt.Fprintf(w, "first block         : %d\n", sb.FirstBlock)
	fmt.Fprintf(w, "block size(byte)    : %d\n", sb.BlockSize)
	fmt.Fprintf(w, "# inodes per block  : %d\n", sb.InodesPerBlock)
	fmt.Fprintf(w, "# inode blocks      : %d\n", sb.InodeBlocks)
	fmt.Fprintf(w, "# free inodes       : %d\n", sb.FreeInodes)
	fmt.Fprintf(w, "first inode         : %d\n", sb.FirstInode)
	fmt.Fprintf(w, "inode size(byte)    : %d\n", sb.InodeSize)
	fmt.Fprintf(w, "sb size(byte)       : %d\n", sb.SuperSize)
	fmt.Fprintf(w, "uuid                : %s\n", sb.UUID)
}

func printBits(w io.Writer, bits string) {
	for i := 0; i < len(bits); i += bitsPerLine {
		end := i + bitsPerLine
		if end > len(bits) {
			end = len(bits)
		}
		fmt.Fprintf(w, "%s\n", bits[i:end])
	}
}

func kindName(k inode.Kind) string {
	switch k {
	case inode.KindDir:
		return "directory"
	case inode.KindFile:
		return "file"
	case inode.KindSymlink:
		return "symlink"
	}
	return "free"
}

func printInode(w io.Writer, ip fs.InodeInfo) {
	direct := int64(ip.Direct)
	if ip.Direct == common.NULLBNUM {
		direct = -1
	}
	fmt.Fprintf(w, "==========INODE %d===========\n", ip.Inum)
	fmt.Fprintf(w, "type            : %s\n", kindName(ip.Kind))
	fmt.Fprintf(w, "name            : %s\n", ip.Name)
	fmt.Fprintf(w, "direct_block_ad : %d\n", direct)
	fmt.Fprintf(w, "num of blocks   : %d\n", ip.Count)
	fmt.Fprintf(w, "size            : %d\n", ip.Size)
	fmt.Fprintf(w, "links           : %d\n", ip.Links)
	fmt.Fprintf(w, "last modified   : %s\n", ip.Mtime.Format(time.ANSIC))
}

func printDump(w io.Writer, output string, d *fs.Dump) error {
	if output == config.OutputYAML {
		return printYAML(w, d)
	}
	printSuper(w, d.Super)
	fmt.Fprintf(w, "============BITMAP============\n")
	printBits(w, d.Bitmap)
	fmt.Fprintf(w, "=======OCCUPIED INODES========\n")
	for _, ip := range d.Inodes {
		printInode(w, ip)
	}
	fmt.Fprintf(w, "============BLOCKS============\n")
	fmt.Fprintf(w, "%-13s%-20s%s\n", "Address", "Type", "Name")
	for _, h := range d.Blocks {
		fmt.Fprintf(w, "%-13d%-20s%s\n", h.Address, h.Kind, h.Name)
	}
	return nil
}

func printReport(w io.Writer, r *fsck.Report) {
	fmt.Fprintf(w, "\nIN USE:\n%s\n", r.InUseBits())
	fmt.Fprintf(w, "FREE  :\n%s\n", r.FreeBits())
	for _, p := range r.Problems {
		fmt.Fprintf(w, "%s\n", p)
	}
}
