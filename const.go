package sfs

// Layout parameters. All are fixed constants shared by format and mount;
// an image written with one set of values is meaningless under another.
const (
	// BlockSize is the number of bytes per block.
	BlockSize = 4096

	// PointersPerInode is the number of direct block pointers stored
	// inline in an inode record.
	PointersPerInode = 5

	// PointersPerBlock is the number of 32-bit block pointers that fit
	// in one indirect block.
	PointersPerBlock = BlockSize / 4

	// InodeSize is the packed, on-disk size of one inode record:
	// Valid(4) + Size(4) + Direct[5](20) + Indirect(4).
	InodeSize = 4 + 4 + PointersPerInode*4 + 4

	// InodesPerBlock is the number of inode records packed into one
	// block of the inode table.
	InodesPerBlock = BlockSize / InodeSize

	// MagicNumber identifies a valid superblock. Pinned to a fixed
	// constant rather than left host-defined, so images remain
	// interchangeable across implementations.
	MagicNumber = 0xf0f03410

	// SuperblockSize is the packed size of the superblock's meaningful
	// fields; the remainder of block 0 is zero padding.
	SuperblockSize = 4 + 4 + 4 + 4

	// MaxFileSize is the largest logical size an inode can reach: five
	// direct blocks plus one indirect block's worth of data blocks.
	MaxFileSize = (PointersPerInode + PointersPerBlock) * BlockSize
)
