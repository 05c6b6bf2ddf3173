package bip32

import (
	"encoding/hex"
	"strconv"
	"strings"
	"testing"
)

func TestBIP32SpecVectors(t *testing.T) {
	type testPath struct {
		path               string
		extendedPublicKey  string
		extendedPrivateKey string
	}

	type testVector struct {
		seed  string
		paths []testPath
	}

	// test vectors are copied from https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki#Test_Vectors
	testVectors := []testVector{
		{
			seed: "000102030405060708090a0b0c0d0e0f",
			paths: []testPath{
				{
					path:               "m",
					extendedPublicKey:  "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8",
					extendedPrivateKey: "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi",
				},
				{
					path:               "m/0'",
					extendedPublicKey:  "xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw",
					extendedPrivateKey: "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7",
				},
				{
					path:               "m/0'/1",
					extendedPublicKey:  "xpub6ASuArnXKPbfEwhqN6e3mwBcDTgzisQN1wXN9BJcM47sSikHjJf3UFHKkNAWbWMiGj7Wf5uMash7SyYq527Hqck2AxYysAA7xmALppuCkwQ",
					extendedPrivateKey: "xprv9wTYmMFdV23N2TdNG573QoEsfRrWKQgWeibmLntzniatZvR9BmLnvSxqu53Kw1UmYPxLgboyZQaXwTCg8MSY3H2EU4pWcQDnRnrVA1xe8fs",
				},
				{
					path:               "m/0'/1/2'",
					extendedPublicKey:  "xpub6D4BDPcP2GT577Vvch3R8wDkScZWzQzMMUm3PWbmWvVJrZwQY4VUNgqFJPMM3No2dFDFGTsxxpG5uJh7n7epu4trkrX7x7DogT5Uv6fcLW5",
					extendedPrivateKey: "xprv9z4pot5VBttmtdRTWfWQmoH1taj2axGVzFqSb8C9xaxKymcFzXBDptWmT7FwuEzG3ryjH4ktypQSAewRiNMjANTtpgP4mLTj34bhnZX7UiM",
				},
				{
					path:               "m/0'/1/2'/2",
					extendedPublicKey:  "xpub6FHa3pjLCk84BayeJxFW2SP4XRrFd1JYnxeLeU8EqN3vDfZmbqBqaGJAyiLjTAwm6ZLRQUMv1ZACTj37sR62cfN7fe5JnJ7dh8zL4fiyLHV",
					extendedPrivateKey: "xprvA2JDeKCSNNZky6uBCviVfJSKyQ1mDYahRjijr5idH2WwLsEd4Hsb2Tyh8RfQMuPh7f7RtyzTtdrbdqqsunu5Mm3wDvUAKRHSC34sJ7in334",
				},
				{
					path:               "m/0'/1/2'/2/1000000000",
					extendedPublicKey:  "xpub6H1LXWLaKsWFhvm6RVpEL9P4KfRZSW7abD2ttkWP3SSQvnyA8FSVqNTEcYFgJS2UaFcxupHiYkro49S8yGasTvXEYBVPamhGW6cFJodrTHy",
					extendedPrivateKey: "xprvA41z7zogVVwxVSgdKUHDy1SKmdb533PjDz7J6N6mV6uS3ze1ai8FHa8kmHScGpWmj4WggLyQjgPie1rFSruoUihUZREPSL39UNdE3BBDu76",
				},
			},
		},
		{
			seed: "fffcf9f6f3f0edeae7e4e1dedbd8d5d2cfccc9c6c3c0bdbab7b4b1aeaba8a5a29f9c999693908d8a8784817e7b7875726f6c696663605d5a5754514e4b484542",
			paths: []testPath{
				{
					path:               "m",
					extendedPublicKey:  "xpub661MyMwAqRbcFW31YEwpkMuc5THy2PSt5bDMsktWQcFF8syAmRUapSCGu8ED9W6oDMSgv6Zz8idoc4a6mr8BDzTJY47LJhkJ8UB7WEGuduB",
					extendedPrivateKey: "xprv9s21ZrQH143K31xYSDQpPDxsXRTUcvj2iNHm5NUtrGiGG5e2DtALGdso3pGz6ssrdK4PFmM8NSpSBHNqPqm55Qn3LqFtT2emdEXVYsCzC2U",
				},
				{
					path:               "m/0",
					extendedPublicKey:  "xpub69H7F5d8KSRgmmdJg2KhpAK8SR3DjMwAdkxj3ZuxV27CprR9LgpeyGmXUbC6wb7ERfvrnKZjXoUmmDznezpbZb7ap6r1D3tgFxHmwMkQTPH",
					extendedPrivateKey: "xprv9vHkqa6EV4sPZHYqZznhT2NPtPCjKuDKGY38FBWLvgaDx45zo9WQRUT3dKYnjwih2yJD9mkrocEZXo1ex8G81dwSM1fwqWpWkeS3v86pgKt",
				},
				{
					path:               "m/0/2147483647'",
					extendedPublicKey:  "xpub6ASAVgeehLbnwdqV6UKMHVzgqAG8Gr6riv3Fxxpj8ksbH9ebxaEyBLZ85ySDhKiLDBrQSARLq1uNRts8RuJiHjaDMBU4Zn9h8LZNnBC5y4a",
					extendedPrivateKey: "xprv9wSp6B7kry3Vj9m1zSnLvN3xH8RdsPP1Mh7fAaR7aRLcQMKTR2vidYEeEg2mUCTAwCd6vnxVrcjfy2kRgVsFawNzmjuHc2YmYRmagcEPdU9",
				},
				{
					path:               "m/0/2147483647'/1",
					extendedPublicKey:  "xpub6DF8uhdarytz3FWdA8TvFSvvAh8dP3283MY7p2V4SeE2wyWmG5mg5EwVvmdMVCQcoNJxGoWaU9DCWh89LojfZ537wTfunKau47EL2dhHKon",
					extendedPrivateKey: "xprv9zFnWC6h2cLgpmSA46vutJzBcfJ8yaJGg8cX1e5StJh45BBciYTRXSd25UEPVuesF9yog62tGAQtHjXajPPdbRCHuWS6T8XA2ECKADdw4Ef",
				},
				{
					path:               "m/0/2147483647'/1/2147483646'",
					extendedPublicKey:  "xpub6ERApfZwUNrhLCkDtcHTcxd75RbzS1ed54G1LkBUHQVHQKqhMkhgbmJbZRkrgZw4koxb5JaHWkY4ALHY2grBGRjaDMzQLcgJvLJuZZvRcEL",
					extendedPrivateKey: "xprvA1RpRA33e1JQ7ifknakTFpgNXPmW2YvmhqLQYMmrj4xJXXWYpDPS3xz7iAxn8L39njGVyuoseXzU6rcxFLJ8HFsTjSyQbLYnMpCqE2VbFWc",
				},
				{
					path:               "m/0/2147483647'/1/2147483646'/2",
					extendedPublicKey:  "xpub6FnCn6nSzZAw5Tw7cgR9bi15UV96gLZhjDstkXXxvCLsUXBGXPdSnLFbdpq8p9HmGsApME5hQTZ3emM2rnY5agb9rXpVGyy3bdW6EEgAtqt",
					extendedPrivateKey: "xprvA2nrNbFZABcdryreWet9Ea4LvTJcGsqrMzxHx98MMrotbir7yrKCEXw7nadnHM8Dq38EGfSh6dqA9QWTyefMLEcBYJUuekgW4BYPJcr9E7j",
				},
			},
		},
		{
			seed: "4b381541583be4423346c643850da4b320e46a87ae3d2a4e6da11eba819cd4acba45d239319ac14f863b8d5ab5a0d0c64d2e8a1e7d1457df2e5a3c51c73235be",
			paths: []testPath{
				{
					path:               "m",
					extendedPublicKey:  "xpub661MyMwAqRbcEZVB4dScxMAdx6d4nFc9nvyvH3v4gJL378CSRZiYmhRoP7mBy6gSPSCYk6SzXPTf3ND1cZAceL7SfJ1Z3GC8vBgp2epUt13",
					extendedPrivateKey: "xprv9s21ZrQH143K25QhxbucbDDuQ4naNntJRi4KUfWT7xo4EKsHt2QJDu7KXp1A3u7Bi1j8ph3EGsZ9Xvz9dGuVrtHHs7pXeTzjuxBrCmmhgC6",
				},
				{
					path:               "m/0'",
					extendedPublicKey:  "xpub68NZiKmJWnxxS6aaHmn81bvJeTESw724CRDs6HbuccFQN9Ku14VQrADWgqbhhTHBaohPX4CjNLf9fq9MYo6oDaPPLPxSb7gwQN3ih19Zm4Y",
					extendedPrivateKey: "xprv9uPDJpEQgRQfDcW7BkF7eTya6RPxXeJCqCJGHuCJ4GiRVLzkTXBAJMu2qaMWPrS7AANYqdq6vcBcBUdJCVVFceUvJFjaPdGZ2y9WACViL4L",
				},
			},
		},
	}

	for i, vector := range testVectors {
		seed, err := hex.DecodeString(vector.seed)
		if err != nil {
			t.Fatalf("DecodeString: %+v", err)
		}

		masterKey, err := NewMaster(seed, BitcoinMainnetPrivate)
		if err != nil {
			t.Fatalf("NewMaster: %+v", err)
		}

		for j, path := range vector.paths {
			extendedPrivateKey, err := masterKey.DeriveFromPath(path.path)
			if err != nil {
				t.Fatalf("DeriveFromPath: %+v", err)
			}

			if extendedPrivateKey.String() != path.extendedPrivateKey {
				t.Fatalf("Test (%d, %d): expected extended private key %s but got %s", i, j,
					path.extendedPrivateKey, extendedPrivateKey.String())
			}

			decodedExtendedPrivateKey, err := DeserializeExtendedKey(extendedPrivateKey.String())
			if err != nil {
				t.Fatalf("DeserializeExtendedKey: %+v", err)
			}
			if extendedPrivateKey.String() != decodedExtendedPrivateKey.String() {
				t.Fatalf("Test (%d, %d): deserializing and serializing the extended private key didn't "+
					"preserve the data", i, j)
			}

			extendedPublicKey, err := extendedPrivateKey.Public()
			if err != nil {
				t.Fatalf("Public: %+v", err)
			}
			if extendedPublicKey.String() != path.extendedPublicKey {
				t.Fatalf("Test (%d, %d): expected extended public key %s but got %s", i, j,
					path.extendedPublicKey, extendedPublicKey.String())
			}

			publicPath := "M" + strings.TrimPrefix(path.path, "m")
			derivedPublicKey, err := masterKey.DeriveFromPath(publicPath)
			if err != nil {
				t.Fatalf("DeriveFromPath(%s): %+v", publicPath, err)
			}
			if derivedPublicKey.String() != path.extendedPublicKey {
				t.Fatalf("Test (%d, %d): %s derived %s", i, j, publicPath, derivedPublicKey.String())
			}

			decodedExtendedPublicKey, err := DeserializeExtendedKey(extendedPublicKey.String())
			if err != nil {
				t.Fatalf("DeserializeExtendedKey: %+v", err)
			}
			if extendedPublicKey.String() != decodedExtendedPublicKey.String() {
				t.Fatalf("Test (%d, %d): deserializing and serializing the extended public key didn't "+
					"preserve the data", i, j)
			}
		}
	}
}

func TestPublicChildDerivation(t *testing.T) {
	seed, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	if err != nil {
		t.Fatalf("DecodeString: %+v", err)
	}
	account, err := NewMasterWithPath(seed, BitcoinTestnetPrivate, "m/44'/1'/0'")
	if err != nil {
		t.Fatalf("NewMasterWithPath: %+v", err)
	}
	accountPublic, err := account.Public()
	if err != nil {
		t.Fatalf("Public: %+v", err)
	}

	for i := uint32(0); i < 5; i++ {
		privateChild, err := account.DeriveFromPath("m/0/" + strconv.Itoa(int(i)))
		if err != nil {
			t.Fatalf("DeriveFromPath: %+v", err)
		}
		publicChild, err := accountPublic.Child(0)
		if err != nil {
			t.Fatalf("Child: %+v", err)
		}
		publicChild, err = publicChild.Child(i)
		if err != nil {
			t.Fatalf("Child: %+v", err)
		}

		expected, err := privateChild.Public()
		if err != nil {
			t.Fatalf("Public: %+v", err)
		}
		if expected.String() != publicChild.String() {
			t.Fatalf("child %d: public derivation %s differs from private derivation %s",
				i, publicChild, expected)
		}

		keyPair, err := privateChild.KeyPair()
		if err != nil {
			t.Fatalf("KeyPair: %+v", err)
		}
		publicKey, err := publicChild.PublicKey()
		if err != nil {
			t.Fatalf("PublicKey: %+v", err)
		}
		if hex.EncodeToString(keyPair.PublicKey()) != hex.EncodeToString(publicKey.SerializeCompressed()) {
			t.Fatalf("child %d: key pair does not match the public key", i)
		}
	}

	if _, err := accountPublic.Child(hardenedIndexStart); err == nil {
		t.Fatalf("derived a hardened child from a public key")
	}
	if _, err := accountPublic.DeriveFromPath("m/0"); err == nil {
		t.Fatalf("derived a private path from a public key")
	}
	if _, err := accountPublic.KeyPair(); err == nil {
		t.Fatalf("public key returned a key pair")
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path      string
		isPrivate bool
		indexes   []uint32
	}{
		{path: "m", isPrivate: true, indexes: []uint32{}},
		{path: "M/1", isPrivate: false, indexes: []uint32{1}},
		{path: "m/44'/1129'/0'/0/7", isPrivate: true,
			indexes: []uint32{hardenedIndexStart + 44, hardenedIndexStart + 1129, hardenedIndexStart, 0, 7}},
		{path: "m/0h/2147483647", isPrivate: true, indexes: []uint32{hardenedIndexStart, 2147483647}},
	}
	for _, test := range tests {
		parsed, err := parsePath(test.path)
		if err != nil {
			t.Fatalf("parsePath(%s): %+v", test.path, err)
		}
		if parsed.isPrivate != test.isPrivate || len(parsed.indexes) != len(test.indexes) {
			t.Fatalf("parsePath(%s): got %+v", test.path, parsed)
		}
		for i := range test.indexes {
			if parsed.indexes[i] != test.indexes[i] {
				t.Fatalf("parsePath(%s): index %d is %d, want %d", test.path, i, parsed.indexes[i], test.indexes[i])
			}
		}
	}

	for _, invalid := range []string{"", "x/1", "m/", "m/a", "m/2147483648", "m/-1", "m/1''"} {
		if _, err := parsePath(invalid); err == nil {
			t.Errorf("parsePath accepted %q", invalid)
		}
	}
}

func TestDeserializeExtendedKeyErrors(t *testing.T) {
	valid := "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"
	if _, err := DeserializeExtendedKey(valid); err != nil {
		t.Fatalf("DeserializeExtendedKey: %+v", err)
	}

	corrupted := []byte(valid)
	if corrupted[50] == 'a' {
		corrupted[50] = 'b'
	} else {
		corrupted[50] = 'a'
	}
	invalid := []string{
		"",
		valid[:len(valid)-1],
		string(corrupted),
	}
	for _, key := range invalid {
		if _, err := DeserializeExtendedKey(key); err == nil {
			t.Errorf("DeserializeExtendedKey accepted %q", key)
		}
	}
}

func TestNewMasterErrors(t *testing.T) {
	if _, err := NewMaster(make([]byte, MinSeedBytes-1), BitcoinMainnetPrivate); err != ErrInvalidSeedLen {
		t.Fatalf("got %v, want ErrInvalidSeedLen", err)
	}
	if _, err := NewMaster(make([]byte, MaxSeedBytes+1), BitcoinMainnetPrivate); err != ErrInvalidSeedLen {
		t.Fatalf("got %v, want ErrInvalidSeedLen", err)
	}
	if _, err := NewMaster(make([]byte, RecommendedSeedLen), BitcoinMainnetPublic); err == nil {
		t.Fatalf("NewMaster accepted a public version")
	}

	seed, err := GenerateSeed()
	if err != nil {
		t.Fatalf("GenerateSeed: %+v", err)
	}
	if _, err := NewMaster(seed, BitcoinTestnetPrivate); err != nil {
		t.Fatalf("NewMaster: %+v", err)
	}
}
