package chain

// FindUIDByHotkey returns the uid of the hotkey in the metagraph, or
// -1 when the hotkey is not registered.
func FindUIDByHotkey(metagraph *SubnetMetagraph, hotkey string) int {
	for uid, currHotkey := range metagraph.Hotkeys {
		if currHotkey == hotkey {
			return uid
		}
	}
	return -1
}

// GetHotkey returns the SS58 address of the node's keyring pair.
func GetHotkey(k *Kami) (string, error) {
	keyringPair, err := k.GetKeyringPair()
	if err != nil {
		return "", err
	}
	return keyringPair.Data.KeyringPair.Address, nil
}
