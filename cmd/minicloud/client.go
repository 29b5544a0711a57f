package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/TheMichaelB/minicloud/internal/client"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Interactive protocol client",
	Long: `Client connects to a minicloud server and runs an interactive loop.

Commands:
  list
  upload <localpath> [remote_name]
  download <remote_name> [save_as]
  rename <oldname> <newname>
  delete <remote_name>
  quit`,
	Example: `  minicloud client --addr localhost:8080`,
}

var clientAddr string

func init() {
	clientCmd.RunE = runClient
	rootCmd.AddCommand(clientCmd)

	clientCmd.Flags().StringVarP(&clientAddr, "addr", "a", "localhost:8080",
		"Server address")
}

func runClient(cmd *cobra.Command, args []string) error {
	c, err := client.Dial(clientAddr, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	printInfo("Connected to %s", clientAddr)

	// Only prompt when a human is typing; piped input stays clean.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("cloud> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "list":
			files, err := c.List()
			if err != nil {
				printError("%v", err)
				continue
			}
			for _, f := range files {
				fmt.Printf("%-40s %10s\n", f.Name, formatBytes(f.Size))
			}
			printInfo("%d file(s)", len(files))

		case "upload":
			if len(fields) < 2 || len(fields) > 3 {
				printWarning("usage: upload <localpath> [remote_name]")
				continue
			}
			localPath := fields[1]
			remote := filepath.Base(localPath)
			if len(fields) == 3 {
				remote = fields[2]
			}
			if err := uploadFile(c, localPath, remote); err != nil {
				printError("%v", err)
				continue
			}

		case "download":
			if len(fields) < 2 || len(fields) > 3 {
				printWarning("usage: download <remote_name> [save_as]")
				continue
			}
			remote := fields[1]
			saveAs := remote
			if len(fields) == 3 {
				saveAs = fields[2]
			}
			if err := downloadFile(c, remote, saveAs); err != nil {
				printError("%v", err)
				continue
			}

		case "rename":
			if len(fields) != 3 {
				printWarning("usage: rename <oldname> <newname>")
				continue
			}
			if err := c.Rename(fields[1], fields[2]); err != nil {
				printError("%v", err)
				continue
			}
			printSuccess("Renamed.")

		case "delete":
			if len(fields) != 2 {
				printWarning("usage: delete <remote_name>")
				continue
			}
			if err := c.Delete(fields[1]); err != nil {
				printError("%v", err)
				continue
			}
			printSuccess("Deleted.")

		case "quit":
			if err := c.Quit(); err != nil {
				printError("%v", err)
			}
			return nil

		default:
			fmt.Println(clientCmd.Long)
		}
	}
}

func uploadFile(c *client.Client, localPath, remote string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", localPath)
	}

	if err := c.Upload(remote, f, info.Size()); err != nil {
		return err
	}
	printSuccess("Upload complete: %s (%s)", remote, formatBytes(info.Size()))
	return nil
}

func downloadFile(c *client.Client, remote, saveAs string) error {
	f, err := os.OpenFile(saveAs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	size, err := c.Download(remote, f)
	if err != nil {
		// Leave the truncated local file in place, mirroring the server's
		// own partial-transfer behavior.
		return err
	}
	printSuccess("Downloaded %s (%s) -> %s", remote, formatBytes(size), saveAs)
	return nil
}
