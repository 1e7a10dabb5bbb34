package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/blockfs/config"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/fs"
	"github.com/mit-pdos/blockfs/fsck"
	"github.com/mit-pdos/blockfs/super"
)

func mkVolume(t *testing.T) *fs.Volume {
	sb, err := super.Compute(super.Params{BlockSizeKB: 1, FreeInodes: 10})
	require.NoError(t, err)
	vol, err := fs.Mkfs(disk.NewMemDisk(sb.BlockSize, sb.TotalBlocks), sb)
	require.NoError(t, err)
	return vol
}

func TestPrintDumpText(t *testing.T) {
	vol := mkVolume(t)
	var b bytes.Buffer
	require.NoError(t, printDump(&b, config.OutputText, vol.Dump()))
	out := b.String()
	assert.Contains(t, out, "total blocks        : 1000\n")
	assert.Contains(t, out, "==========INODE 0===========\ntype            : directory\nname            : root\n")
	assert.Contains(t, out, "6            DIRECTORY CONTENT   root\n")
	assert.Contains(t, out, "0            SUPER BLOCK         sb_0\n")

	bitmap := out[strings.Index(out, "BITMAP")+len("BITMAP============\n"):]
	assert.True(t, strings.HasPrefix(bitmap, "1111111000"), "bitmap: %.20s", bitmap)
	assert.Equal(t, 80, strings.Index(bitmap, "\n"))
}

func TestPrintDumpYAML(t *testing.T) {
	vol := mkVolume(t)
	var b bytes.Buffer
	require.NoError(t, printDump(&b, config.OutputYAML, vol.Dump()))

	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal(b.Bytes(), &got))
	sb := got["superblock"].(map[interface{}]interface{})
	assert.Equal(t, 1000, sb["total_blocks"])
	assert.Equal(t, vol.Super().UUID.String(), sb["uuid"])
	assert.Contains(t, b.String(), "kind: DIRECTORY CONTENT")
}

func TestPrintReport(t *testing.T) {
	vol := mkVolume(t)
	var b bytes.Buffer
	printReport(&b, fsck.Check(vol))
	lines := strings.Split(b.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "IN USE:", lines[1])
	assert.Equal(t, "1111111"+strings.Repeat("0", 993), lines[2])
	assert.Equal(t, "FREE  :", lines[3])
	assert.Equal(t, "0000000"+strings.Repeat("1", 993), lines[4])
}

func TestPrintList(t *testing.T) {
	vol := mkVolume(t)
	require.NoError(t, vol.Mkdir("/sub"))
	ents, err := vol.List("/")
	require.NoError(t, err)
	var b bytes.Buffer
	require.NoError(t, printList(&b, config.OutputText, ents))
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[2], " sub"), lines[2])
}
