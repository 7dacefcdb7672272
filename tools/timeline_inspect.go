package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"

	"im-core/domain"
)

// Inspects the delivery store of one node. Scans timeline rows by
// default; pass -prefix "inbox:{user}:" to inspect a user's inbox keys
// instead (inbox values are message id references, not envelopes).
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "log:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Conversation", "Seq", "Sender", "Type", "Mode", "At", "Body"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				var envelope domain.MessageEnvelope
				if err := json.Unmarshal(v, &envelope); err != nil {
					// Inbox values are plain message ids; show them as-is.
					table.Append([]string{rawKey, "", "", "", "", "", "", string(v)})
					return nil
				}

				body := envelope.Body
				if len(body) > 40 {
					body = body[:40] + "..."
				}

				table.Append([]string{
					rawKey,
					envelope.ConversationID,
					fmt.Sprintf("%d", envelope.Seq),
					envelope.SenderID,
					string(envelope.Type),
					string(envelope.DeliveryMode),
					envelope.CreatedAt.Format("15:04:05"),
					body,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
