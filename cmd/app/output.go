package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Eroo144/instaclone/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func printPosts(items []domain.Post) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.AuthorID,
			truncate(item.Caption, 40),
			strconv.Itoa(len(item.Likes)),
			strconv.Itoa(len(item.Comments)),
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "AUTHOR", "CAPTION", "LIKES", "COMMENTS", "CREATED_AT"}, rows)
}

func printUsers(items []domain.User) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Username,
			item.Email,
			strconv.Itoa(len(item.Followers)),
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "USERNAME", "EMAIL", "FOLLOWERS", "CREATED_AT"}, rows)
}

func printNotifications(items []domain.Notification) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			string(item.Kind),
			item.ActorUsername,
			item.PostID,
			strconv.FormatBool(item.Read),
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "KIND", "FROM", "POST_ID", "READ", "AT"}, rows)
}

func printMessages(items []domain.Message) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatTime(item.CreatedAt),
			item.SenderID,
			truncate(item.Text, 60),
		})
	}
	printTable([]string{"AT", "FROM", "TEXT"}, rows)
}
