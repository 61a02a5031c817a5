package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"paymint/core/types"
	"paymint/crypto/pda"
)

var rpcEndpoint = defaultRPCEndpoint()
var rpcAuthToken = os.Getenv("PAYMINT_RPC_TOKEN")

func main() {
	args := os.Args[1:]
	var err error
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	switch command {
	case "content-id":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a content descriptor.")
			printUsage()
			return
		}
		contentID(args[1])
	case "derive":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a derivation kind.")
			printUsage()
			return
		}
		derive(args[1], args[2:])
	case "balance":
		if len(args) < 2 {
			fmt.Println("Error: Please provide an account address.")
			printUsage()
			return
		}
		token := ""
		if len(args) > 2 {
			token = args[2]
		}
		getBalance(args[1], token)
	case "purchase-init":
		if len(args) < 6 {
			fmt.Println("Error: usage: purchase-init <buyer> <creator> <content-id> <price> <disambiguator> [token]")
			return
		}
		purchaseInit(args[1:])
	case "settle":
		if len(args) < 6 {
			fmt.Println("Error: usage: settle <purchase> <caller> <amount> <mint-state> <split>")
			return
		}
		settle(args[1:])
	case "cancel":
		if len(args) < 3 {
			fmt.Println("Error: usage: cancel <purchase> <caller>")
			return
		}
		call("escrow_cancel", map[string]interface{}{"purchase": args[1], "caller": args[2]})
	case "purchase-get":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a purchase address.")
			return
		}
		call("escrow_get", map[string]interface{}{"purchase": args[1]})
	case "split-get":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a split address.")
			return
		}
		call("split_get", map[string]interface{}{"split": args[1]})
	case "split-preview":
		if len(args) < 3 {
			fmt.Println("Error: usage: split-preview <split> <amount>")
			return
		}
		splitPreview(args[1], args[2])
	case "mint-state":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a mint state address.")
			return
		}
		call("accessmint_state", map[string]interface{}{"mintState": args[1]})
	case "credential":
		if len(args) < 3 {
			fmt.Println("Error: usage: credential <asset> <holder>")
			return
		}
		call("accessmint_balance", map[string]interface{}{"asset": args[1], "holder": args[2]})
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8545"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

// contentID hashes an arbitrary descriptor into the canonical 32-byte
// content identifier used in ledger derivations.
func contentID(descriptor string) {
	id := types.ContentID([]byte(descriptor))
	fmt.Println(types.ContentIDHex(id))
}

// derive computes ledger addresses locally without touching the node.
func derive(kind string, args []string) {
	switch kind {
	case "purchase", "split", "mint-state", "mint-authority", "credential":
	default:
		fmt.Printf("Unknown derivation kind: %s\n", kind)
		return
	}
	if len(args) < 3 {
		fmt.Printf("Error: usage: derive %s <owner> <content-id> <disambiguator>\n", kind)
		return
	}
	owner, err := types.ParseAddress(args[0])
	if err != nil {
		fmt.Printf("Error: invalid owner address: %v\n", err)
		return
	}
	content, err := types.ParseContentID(args[1])
	if err != nil {
		fmt.Printf("Error: invalid content id: %v\n", err)
		return
	}
	disambiguator, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		fmt.Printf("Error: invalid disambiguator: %v\n", err)
		return
	}

	var addr types.Address
	var bump uint8
	switch kind {
	case "purchase":
		addr, bump, err = pda.Purchase(owner, content, disambiguator)
		if err == nil {
			fmt.Printf("purchase: %s (bump %d)\n", addr.Hex(), bump)
			if vault, vaultBump, vErr := pda.Vault(addr); vErr == nil {
				fmt.Printf("vault:    %s (bump %d)\n", vault.Hex(), vaultBump)
			}
			return
		}
	case "split":
		addr, bump, err = pda.Split(owner, content, disambiguator)
	case "mint-state":
		addr, bump, err = pda.MintState(owner, content, disambiguator)
	case "mint-authority":
		addr, bump, err = pda.MintAuthority(owner, content, disambiguator)
	case "credential":
		addr, bump, err = pda.Credential(owner, content, disambiguator)
	}
	if err != nil {
		fmt.Printf("Error: derivation failed: %v\n", err)
		return
	}
	fmt.Printf("%s: %s (bump %d)\n", kind, addr.Hex(), bump)
}

func getBalance(account, token string) {
	params := map[string]interface{}{"account": account}
	if token != "" {
		params["token"] = token
	}
	call("ledger_balance", params)
}

func purchaseInit(args []string) {
	price, err := strconv.ParseUint(args[3], 10, 64)
	if err != nil {
		fmt.Println("Error: Invalid price.")
		return
	}
	disambiguator, err := strconv.ParseUint(args[4], 10, 64)
	if err != nil {
		fmt.Println("Error: Invalid disambiguator.")
		return
	}
	params := map[string]interface{}{
		"buyer":         args[0],
		"creator":       args[1],
		"contentId":     args[2],
		"price":         price,
		"disambiguator": disambiguator,
	}
	if len(args) > 5 {
		params["paymentToken"] = args[5]
	}
	call("escrow_initialize", params)
}

func settle(args []string) {
	amount, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		fmt.Println("Error: Invalid amount.")
		return
	}
	call("escrow_settle", map[string]interface{}{
		"purchase":      args[0],
		"caller":        args[1],
		"paymentAmount": amount,
		"mintState":     args[3],
		"split":         args[4],
	})
}

func splitPreview(split, amountArg string) {
	amount, err := strconv.ParseUint(amountArg, 10, 64)
	if err != nil {
		fmt.Println("Error: Invalid amount.")
		return
	}
	call("split_preview", map[string]interface{}{"split": split, "amount": amount})
}

// call performs a JSON-RPC request and pretty prints the result.
func call(method string, params interface{}) {
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []interface{}{params},
	})
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		return
	}
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if rpcAuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+rpcAuthToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error calling node: %v\n", err)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Error reading response: %v\n", err)
		return
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int         `json:"code"`
			Message string      `json:"message"`
			Data    interface{} `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		fmt.Printf("Error decoding response: %v\n", err)
		return
	}
	if envelope.Error != nil {
		fmt.Printf("Error: %s (code %d)", envelope.Error.Message, envelope.Error.Code)
		if envelope.Error.Data != nil {
			fmt.Printf(": %v", envelope.Error.Data)
		}
		fmt.Println()
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, envelope.Result, "", "  "); err != nil {
		fmt.Println(string(envelope.Result))
		return
	}
	fmt.Println(pretty.String())
}

func printUsage() {
	fmt.Println("Usage: paymint-cli [--rpc <endpoint>] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  content-id <descriptor>                                Hash a descriptor into a content id")
	fmt.Println("  derive purchase <buyer> <content-id> <n>               Derive purchase + vault addresses")
	fmt.Println("  derive split <creator> <content-id> <n>                Derive a split address")
	fmt.Println("  derive mint-state <creator> <content-id> <n>           Derive a mint state address")
	fmt.Println("  derive mint-authority <creator> <content-id> <n>       Derive a mint authority address")
	fmt.Println("  derive credential <creator> <content-id> <n>           Derive a credential asset address")
	fmt.Println("  balance <account> [token]                              Fetch a ledger balance")
	fmt.Println("  purchase-init <buyer> <creator> <content-id> <price> <n> [token]")
	fmt.Println("  settle <purchase> <caller> <amount> <mint-state> <split>")
	fmt.Println("  cancel <purchase> <caller>")
	fmt.Println("  purchase-get <purchase>")
	fmt.Println("  split-get <split>")
	fmt.Println("  split-preview <split> <amount>")
	fmt.Println("  mint-state <mint-state>")
	fmt.Println("  credential <asset> <holder>")
	fmt.Println()
	fmt.Println("Environment: RPC_URL overrides the endpoint, PAYMINT_RPC_TOKEN supplies the bearer token.")
}
