package configs

const Configs = "configs/"

// Bundle is the directory the server fills with public artifacts and the
// client consumes. Everything inside is safe to ship.
const Bundle = "bundle/"
const Manifest = "manifest.json"

const Context = "cc.bin"
const PublicKey = "pk.bin"
const RelinearizationKey = "relin.bin"
const RotationKeys = "rot.bin"
const SwitchingKey = "swk_fc.bin"
const Ciphertext = "ct.bin"
const BinContext = "bincc.bin"
const BinRefreshKey = "bt_refresh.bin"
const BinSwitchKey = "bt_swk.bin"

// BinMapRefreshFormat and BinMapSwitchFormat name the per-base bootstrapping
// entries, e.g. 262144_refresh.bin for base 2^18.
const BinMapRefreshFormat = "%d_refresh.bin"
const BinMapSwitchFormat = "%d_swk.bin"

// Result written back by the client for the server to decrypt.
const ResultCiphertext = "ct_argmin.bin"

// Keys holds server-private material. Never part of the bundle.
const Keys = "keys/"
const SecretKey = "sk.bin"
