package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/tinyfs-go/tinyfs/pkg/fs"
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// Config carries the environment-variable defaults; flags override them.
type Config struct {
	Blocks   uint16 `envconfig:"TINYFS_BLOCKS" default:"1824"`
	LogLevel string `envconfig:"TINYFS_LOG_LEVEL" default:"info"`
}

func main() {
	var config Config
	if err := envconfig.Process("tinyfs", &config); err != nil {
		log.Fatalf("processing environment: %v", err)
	}
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatalf("parsing TINYFS_LOG_LEVEL: %v", err)
	}
	log.SetLevel(level)

	app := &cli.App{
		Name:  "tinyfs",
		Usage: "operate on a tinyfs disk image",
		Commands: []*cli.Command{
			formatCommand(&config),
			infoCommand(),
			lsCommand(),
			writeCommand(),
			catCommand(),
			statCommand(),
			mvCommand(),
			rmCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// imageArg returns the image-path positional argument common to every
// command.
func imageArg(c *cli.Context) (string, error) {
	image := c.Args().Get(0)
	if image == "" {
		return "", fmt.Errorf("missing required IMAGE argument")
	}
	return image, nil
}

// withFileSystem mounts the image, runs fn, and closes explicitly so sync
// errors reach the exit code; the deferred close is a best-effort backstop
// for fn's error paths and only logs.
func withFileSystem(c *cli.Context, fn func(*fs.FileSystem) error) error {
	image, err := imageArg(c)
	if err != nil {
		return err
	}
	fsys, err := fs.Mount(image)
	if err != nil {
		return err
	}
	fsys.SetLogger(log.StandardLogger())
	defer fsys.CloseLogged()
	if err := fn(fsys); err != nil {
		return err
	}
	return fsys.Close()
}

func formatCommand(config *Config) *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "write a fresh filesystem to IMAGE",
		ArgsUsage: "IMAGE",
		Flags: []cli.Flag{&cli.UintFlag{
			Name:  "blocks",
			Usage: "total block count of the image",
			Value: uint(config.Blocks),
		}},
		Action: func(c *cli.Context) error {
			image, err := imageArg(c)
			if err != nil {
				return err
			}
			return fs.Format(image, Block(c.Uint("blocks")))
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "dump the superblock and geometry of IMAGE",
		ArgsUsage: "IMAGE",
		Action: func(c *cli.Context) error {
			return withFileSystem(c, func(fsys *fs.FileSystem) error {
				super := fsys.Superblock()
				info := struct {
					Volume     string `json:"volume"`
					BlockSize  Byte   `json:"blockSize"`
					BlockCount Block  `json:"blockCount"`
					FreeBlocks Block  `json:"freeBlocks"`
					InodeTable Block  `json:"inodeTableStart"`
					RootDir    Block  `json:"rootDirBlock"`
				}{
					Volume:     super.VolumeID.String(),
					BlockSize:  super.BlockSize,
					BlockCount: super.BlockCount,
					FreeBlocks: fsys.FreeBlocks(),
					InodeTable: super.InodeTableStart,
					RootDir:    super.RootDirBlock,
				}
				data, err := json.MarshalIndent(&info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			})
		},
	}
}

func lsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "list the files in IMAGE",
		ArgsUsage: "IMAGE",
		Action: func(c *cli.Context) error {
			return withFileSystem(c, func(fsys *fs.FileSystem) error {
				infos, err := fsys.ReadDir()
				if err != nil {
					return err
				}
				for i := range infos {
					fmt.Printf(
						"%-14s %6d  %s\n",
						infos[i].Name,
						infos[i].Size,
						time.Unix(infos[i].Modified, 0).Format(time.RFC3339),
					)
				}
				return nil
			})
		},
	}
}

func writeCommand() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "create or overwrite NAME with --data or stdin",
		ArgsUsage: "IMAGE NAME",
		Flags: []cli.Flag{&cli.StringFlag{
			Name:  "data",
			Usage: "literal file content; stdin is used when omitted",
		}},
		Action: func(c *cli.Context) error {
			name := c.Args().Get(1)
			if name == "" {
				return fmt.Errorf("missing required NAME argument")
			}
			data := []byte(c.String("data"))
			if !c.IsSet("data") {
				var err error
				if data, err = io.ReadAll(os.Stdin); err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
			}
			return withFileSystem(c, func(fsys *fs.FileSystem) error {
				h, err := fsys.Create(name)
				if err != nil {
					h, err = fsys.Open(name, fs.ModeWrite)
					if err != nil {
						return err
					}
				}
				defer h.Close()
				return h.Write(data)
			})
		},
	}
}

func catCommand() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "write NAME's content to stdout",
		ArgsUsage: "IMAGE NAME",
		Action: func(c *cli.Context) error {
			name := c.Args().Get(1)
			if name == "" {
				return fmt.Errorf("missing required NAME argument")
			}
			return withFileSystem(c, func(fsys *fs.FileSystem) error {
				h, err := fsys.Open(name, fs.ModeRead)
				if err != nil {
					return err
				}
				defer h.Close()
				info, err := h.Stat()
				if err != nil {
					return err
				}
				data, err := h.Read(int(info.Size))
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			})
		},
	}
}

func statCommand() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "dump NAME's metadata",
		ArgsUsage: "IMAGE NAME",
		Action: func(c *cli.Context) error {
			name := c.Args().Get(1)
			if name == "" {
				return fmt.Errorf("missing required NAME argument")
			}
			return withFileSystem(c, func(fsys *fs.FileSystem) error {
				h, err := fsys.Open(name, fs.ModeRead)
				if err != nil {
					return err
				}
				defer h.Close()
				info, err := h.Stat()
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(&info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			})
		},
	}
}

func mvCommand() *cli.Command {
	return &cli.Command{
		Name:      "mv",
		Usage:     "rename OLD to NEW",
		ArgsUsage: "IMAGE OLD NEW",
		Action: func(c *cli.Context) error {
			oldName, newName := c.Args().Get(1), c.Args().Get(2)
			if oldName == "" || newName == "" {
				return fmt.Errorf("missing required OLD/NEW arguments")
			}
			return withFileSystem(c, func(fsys *fs.FileSystem) error {
				h, err := fsys.Open(oldName, fs.ModeWrite)
				if err != nil {
					return err
				}
				defer h.Close()
				return h.Rename(newName)
			})
		},
	}
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "remove NAME and free its blocks",
		ArgsUsage: "IMAGE NAME",
		Action: func(c *cli.Context) error {
			name := c.Args().Get(1)
			if name == "" {
				return fmt.Errorf("missing required NAME argument")
			}
			return withFileSystem(c, func(fsys *fs.FileSystem) error {
				return fsys.Remove(name)
			})
		},
	}
}
